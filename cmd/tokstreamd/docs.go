package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           tokstream API
// @version         1.0
// @description     Streams engine output as UTF-8 aligned NDJSON chunks.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
