package main

import (
	"flag"
	"os"
	"runtime/debug"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/alis-exchange/protoc-gen-swift/plugin"
)

// version is stamped with -ldflags "-X main.version=...".
var version string

// getVersion prefers the stamped version, then the module version recorded
// by go install. Local builds report "(devel)" there, which is not useful.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		return moduleVersion(info.Main.Version)
	}
	return "development"
}

func moduleVersion(v string) string {
	if v == "" || v == "(devel)" {
		return "development"
	}
	return v
}

const longHelp = `protoc-gen-swift is a plugin for protoc that generates Swift code for the
SwiftProtobuf runtime. It is normally run by protoc, which passes the request
on stdin and reads the response from stdout.

Invoke it through protoc:

  $ protoc --swift_out=. my.proto
  $ protoc --plugin=protoc-gen-swift=/path/to/protoc-gen-swift --swift_out=. my.proto

Options are passed with --swift_opt (or as part of --swift_out):

  $ protoc --swift_opt=Visibility=Public --swift_opt=FileNaming=DropPath --swift_out=. my.proto

Supported options: FileNaming (FullPath, PathToUnderscores, DropPath,
PackageQualified), Visibility (Internal, Public, Package),
ProtoPathModuleMappings, ImplementationOnlyImports, UseAccessLevelOnImports.

The generated code requires SwiftProtobuf 1.28.0 or later.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "protoc-gen-swift",
		Short:         "Generate Swift code from .proto files",
		Long:          longHelp,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return plugin.Run(cmd.InOrStdin(), cmd.OutOrStdout(), getVersion())
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Flags().AddGoFlagSet(flag.CommandLine)
	return cmd
}

func main() {
	// Warnings go to protoc's stderr; stdout carries only the response.
	_ = flag.Set("logtostderr", "true")
	defer log.Flush()

	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("protoc-gen-swift: %v", err)
		log.Flush()
		os.Exit(1)
	}
}
