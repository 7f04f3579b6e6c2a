package plugin

import (
	"path"
	"strconv"
	"strings"
)

// generatedFileExtension is appended to every output file name.
const generatedFileExtension = ".pb.swift"

// FilenameRegistry tracks the base names handed out during one plugin run so
// that files sharing a base name get distinct output names.
//
// A registry must not be shared between runs.
type FilenameRegistry struct {
	counts map[string]int
}

// NewFilenameRegistry returns an empty registry.
func NewFilenameRegistry() *FilenameRegistry {
	return &FilenameRegistry{counts: make(map[string]int)}
}

// dedupe returns base the first time it is seen, and base.K for the Kth
// repeat after that.
func (r *FilenameRegistry) dedupe(base string) string {
	n := r.counts[base]
	r.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "." + strconv.Itoa(n)
}

// outputFilename maps the path of a .proto file to the name of the Swift file
// generated for it.
//
// PathToUnderscores does not consult the registry: flattening the directory
// into the name is expected to keep names apart already.
func outputFilename(protoPath string, naming FileNaming, packageName string, reg *FilenameRegistry) string {
	dir, file := path.Split(protoPath)
	base := strings.TrimSuffix(file, path.Ext(file))

	switch naming {
	case FileNamingPathToUnderscores:
		return strings.ReplaceAll(dir, "/", "_") + base + generatedFileExtension
	case FileNamingDropPath:
		return reg.dedupe(base) + generatedFileExtension
	case FileNamingPackageQualified:
		// protoc rejects absolute output paths, so files without a package
		// land at the top level.
		if packageName == "" {
			return reg.dedupe(base) + generatedFileExtension
		}
		return packageName + "/" + reg.dedupe(base) + generatedFileExtension
	default:
		return dir + reg.dedupe(base) + generatedFileExtension
	}
}
