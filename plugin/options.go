package plugin

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// -----------------------------------------------------------------------------
// Option Values
// -----------------------------------------------------------------------------

// FileNaming selects how output file names are derived from .proto paths.
type FileNaming int

const (
	// FileNamingFullPath keeps the directory of the .proto file.
	FileNamingFullPath FileNaming = iota
	// FileNamingPathToUnderscores flattens the directory into the file name,
	// joining the parts with underscores.
	FileNamingPathToUnderscores
	// FileNamingDropPath discards the directory.
	FileNamingDropPath
	// FileNamingPackageQualified places the file in a directory named after
	// the proto package.
	FileNamingPackageQualified
)

var fileNamingNames = []string{
	FileNamingFullPath:          "FullPath",
	FileNamingPathToUnderscores: "PathToUnderscores",
	FileNamingDropPath:          "DropPath",
	FileNamingPackageQualified:  "PackageQualified",
}

func (n FileNaming) String() string {
	if int(n) < 0 || int(n) >= len(fileNamingNames) {
		return fmt.Sprintf("FileNaming(%d)", int(n))
	}
	return fileNamingNames[n]
}

// Set implements flag.Value.
func (n *FileNaming) Set(s string) error {
	for i, name := range fileNamingNames {
		if name == s {
			*n = FileNaming(i)
			return nil
		}
	}
	return fmt.Errorf("unknown file naming %q, expected one of %s", s, strings.Join(fileNamingNames, ", "))
}

// Visibility is the Swift access level given to generated symbols.
type Visibility int

const (
	VisibilityInternal Visibility = iota
	VisibilityPublic
	VisibilityPackage
)

var visibilityNames = []string{
	VisibilityInternal: "Internal",
	VisibilityPublic:   "Public",
	VisibilityPackage:  "Package",
}

func (v Visibility) String() string {
	if int(v) < 0 || int(v) >= len(visibilityNames) {
		return fmt.Sprintf("Visibility(%d)", int(v))
	}
	return visibilityNames[v]
}

// Set implements flag.Value.
func (v *Visibility) Set(s string) error {
	for i, name := range visibilityNames {
		if name == s {
			*v = Visibility(i)
			return nil
		}
	}
	return fmt.Errorf("unknown visibility %q, expected one of %s", s, strings.Join(visibilityNames, ", "))
}

// keyword returns the Swift access level keyword.
func (v Visibility) keyword() string {
	return strings.ToLower(v.String())
}

// declarationPrefix is written in front of generated declarations. Internal is
// Swift's default and is left implicit.
func (v Visibility) declarationPrefix() string {
	if v == VisibilityInternal {
		return ""
	}
	return v.keyword() + " "
}

// -----------------------------------------------------------------------------
// Generator Options
// -----------------------------------------------------------------------------

// GeneratorOptions is the typed form of the parameter string passed by protoc
// (--swift_opt=Key=Value).
type GeneratorOptions struct {
	// FileNaming controls output file names. Defaults to FullPath.
	FileNaming FileNaming

	// Visibility is the access level of generated symbols. Defaults to Internal.
	Visibility Visibility

	// ImplementationOnlyImports marks imports of other generated modules with
	// @_implementationOnly. Only valid when Visibility is not Public.
	ImplementationOnlyImports bool

	// UseAccessLevelOnImports prefixes every import with the Visibility
	// keyword.
	UseAccessLevelOnImports bool

	// ModuleMappingsPath is the YAML file mapping .proto paths to the Swift
	// modules that contain their generated code.
	ModuleMappingsPath string

	// ModuleMappings is loaded from ModuleMappingsPath. It is empty when no
	// path was given.
	ModuleMappings *ModuleMappings
}

// ParseOptions parses the comma separated Key=Value parameter string.
func ParseOptions(parameter string) (*GeneratorOptions, error) {
	opts := &GeneratorOptions{}

	flags := flag.NewFlagSet("protoc-gen-swift", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Var(&opts.FileNaming, "FileNaming", "output file naming: FullPath, PathToUnderscores, DropPath or PackageQualified")
	flags.Var(&opts.Visibility, "Visibility", "access level of generated symbols: Internal, Public or Package")
	flags.BoolVar(&opts.ImplementationOnlyImports, "ImplementationOnlyImports", false, "mark module imports @_implementationOnly")
	flags.BoolVar(&opts.UseAccessLevelOnImports, "UseAccessLevelOnImports", false, "prefix imports with the access level")
	flags.StringVar(&opts.ModuleMappingsPath, "ProtoPathModuleMappings", "", "YAML file mapping proto files to Swift modules")

	for _, param := range strings.Split(parameter, ",") {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		name, value, ok := strings.Cut(param, "=")
		if !ok {
			return nil, fmt.Errorf("generator parameter %q is missing a value", param)
		}
		if err := flags.Set(name, value); err != nil {
			return nil, fmt.Errorf("invalid generator parameter %q: %w", param, err)
		}
	}

	if opts.ImplementationOnlyImports && opts.UseAccessLevelOnImports {
		return nil, errors.New("ImplementationOnlyImports and UseAccessLevelOnImports cannot both be enabled")
	}

	opts.ModuleMappings = &ModuleMappings{}
	if opts.ModuleMappingsPath != "" {
		mappings, err := LoadModuleMappings(opts.ModuleMappingsPath)
		if err != nil {
			return nil, err
		}
		opts.ModuleMappings = mappings
	}

	return opts, nil
}
