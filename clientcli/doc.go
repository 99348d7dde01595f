// Package clientcli provides a client library for the filesmanager HTTP API.
//
// It supports upload, rename, delete, list and download operations. Downloads
// resolve the file's signed URL through the API and then fetch the content
// from the object store directly. The package includes profile-based
// configuration for managing connections to multiple servers.
//
// # Basic Usage
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:5000"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:  "./scan.pdf",
//		CustomName: "report", // stored as report.pdf
//	})
//
// # Profile Configuration
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, files)
package clientcli
