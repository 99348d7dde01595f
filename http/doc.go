// Package http provides the REST API of the file manager.
//
// # Routes
//
//	POST   /upload        multipart "file", optional "customName" -> {id, name, url}
//	PUT    /rename/{id}   form "name"                              -> {id, name, url}
//	DELETE /delete/{id}                                            -> {"message": "File deleted"}
//	GET    /get_files     reconcile, then list                     -> [{id, name, url}, ...]
//	GET    /download/{id} last stored URL, not re-signed           -> {url}
//	GET    /objects/*     signed object reads (filesystem backend only)
//	GET    /metrics       Prometheus metrics (optional)
//
// Errors are JSON objects with an "error" code and a "message". Unknown ids
// are 404, invalid names 400, rename onto a taken name 409, oversized
// uploads 413 and object store failures 502.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    CORS:          http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	    MaxUploadSize: 100 << 20,
//	    Metrics:       true,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":5000", handler.Router())
//
// The service parameter must implement the Service interface; in production
// it is *filesmanager.FileService.
package http
