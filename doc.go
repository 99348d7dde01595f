// Package filesmanager provides a small file management service that keeps
// a local metadata index synchronized with a remote object store.
//
// Files live in a single bucket with a flat key namespace. The index holds
// one record per object (ID, name, signed read URL) and is rebuilt from the
// store listing on every list request.
//
// # Key Components
//
//   - FileService: upload, rename, delete, list and download operations
//   - Reconciler: three-way diff between the store listing and the index,
//     committed as one transaction
//   - FileRepo: interface for record persistence (PostgreSQL, SQLite)
//   - ObjectStore: interface for the object store gateway (S3, local filesystem)
//
// # Consistency
//
// Mutations write to the object store first and to the index second, with no
// rollback. Divergence between the two is repaired by the next
// reconciliation pass, which treats the object store as authoritative.
//
// # Example Usage
//
//	service, err := filesmanager.NewFileService(repo, store, filesmanager.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload a file under a custom base name, keeping its extension
//	rec, err := service.Upload(ctx, filesmanager.UploadRequest{Filename: "scan.pdf", CustomName: "report"}, r)
//
//	// Reconcile and list
//	files, err := service.List(ctx)
//
// See the http package for the REST API and the database package for the
// metadata backends.
package filesmanager
