// Package scope decides which vault paths the linker may touch.
package scope

import "strings"

// InScope reports whether a document may be processed under allowList.
//
// An empty allow-list admits everything. Otherwise the document is in scope
// when its own path or its containing folder's path starts with any entry.
// The folder clause keeps folder notes reachable when only their folder was
// allow-listed.
//
// Matching is a literal string prefix test: "Allowed" also admits
// "AllowedExtra/x.md". Callers are expected to supply paths consistently.
func InScope(documentPath, containingFolderPath string, allowList []string) bool {
	if len(allowList) == 0 {
		return true
	}
	for _, prefix := range allowList {
		if strings.HasPrefix(documentPath, prefix) || strings.HasPrefix(containingFolderPath, prefix) {
			return true
		}
	}
	return false
}
