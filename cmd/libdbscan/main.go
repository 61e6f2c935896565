// Command libdbscan builds a C shared library exposing the clustering job:
//
//	go build -buildmode=c-shared -o libdbscan.so ./cmd/libdbscan
//
// The library exports
//
//	char *dbscan(char *job);     // JSON job in, JSON result or {"error": ...} out
//	void dbscan_free(char *res); // release a string returned by dbscan
//
// Defaults come from the JSON file named by DBSCAN_CONFIG, if set.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"
)

//export dbscan
func dbscan(input *C.char) *C.char {
	return C.CString(process(C.GoString(input)))
}

//export dbscan_free
func dbscan_free(p *C.char) {
	C.free(unsafe.Pointer(p))
}

func main() {}
