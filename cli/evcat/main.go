package main

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwai/evstream"
	"github.com/iwai/evstream/common"
	"github.com/iwai/evstream/common/eventloop"
	E "github.com/iwai/evstream/common/exceptions"
	"github.com/iwai/evstream/common/handle"
	"github.com/iwai/evstream/common/log"
	"github.com/iwai/evstream/stream"

	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
	"lukechampine.com/blake3"
)

type flags struct {
	ChunkSize  int  `json:"chunk_size"`
	SoftLimit  int  `json:"soft_limit"`
	XZ         bool `json:"xz"`
	Digest     bool `json:"digest"`
	Verbose    bool `json:"verbose"`
	ConfigFile string
}

func main() {
	f := new(flags)

	command := &cobra.Command{
		Use:     "evcat [file]",
		Short:   "copy a file or stdin to stdout through a non-blocking stream",
		Version: evstream.Version,
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			common.Must(run(f, args))
		},
	}

	command.Flags().IntVar(&f.ChunkSize, "chunk-size", 0, "Set the read size of the stream pump.")
	command.Flags().IntVar(&f.SoftLimit, "soft-limit", 0, "Set the write buffer soft limit.")
	command.Flags().BoolVar(&f.XZ, "xz", false, "Compress the output with xz.")
	command.Flags().BoolVar(&f.Digest, "digest", false, "Print the blake3 digest of the input to stderr.")
	command.Flags().StringVarP(&f.ConfigFile, "config", "c", "", "Use a configuration file.")
	command.Flags().BoolVarP(&f.Verbose, "verbose", "v", false, "Enable verbose mode.")

	common.Must(command.Execute())
}

func loadConfig(f *flags) error {
	if f.ConfigFile == "" {
		return nil
	}
	configFile, err := os.ReadFile(f.ConfigFile)
	if err != nil {
		return E.Cause(err, "read config file")
	}
	flagsNew := new(flags)
	err = json.Unmarshal(configFile, flagsNew)
	if err != nil {
		return E.Cause(err, "decode config file")
	}
	if flagsNew.ChunkSize != 0 && f.ChunkSize == 0 {
		f.ChunkSize = flagsNew.ChunkSize
	}
	if flagsNew.SoftLimit != 0 && f.SoftLimit == 0 {
		f.SoftLimit = flagsNew.SoftLimit
	}
	if flagsNew.XZ {
		f.XZ = true
	}
	if flagsNew.Digest {
		f.Digest = true
	}
	if flagsNew.Verbose {
		f.Verbose = true
	}
	return nil
}

func openInput(args []string) (handle.Handle, error) {
	if len(args) == 0 || args[0] == "-" {
		return handle.FromFile(os.Stdin, "r")
	}
	return handle.Open(args[0], "rb")
}

func run(f *flags, args []string) error {
	err := loadConfig(f)
	if err != nil {
		return err
	}
	log.SetVerbose(f.Verbose)
	logger := log.NewLogger("evcat")

	loop, err := eventloop.New()
	if err != nil {
		return err
	}
	defer loop.Close()

	input, err := openInput(args)
	if err != nil {
		return err
	}
	source, err := stream.New(input, loop, stream.Options{
		ChunkSize: f.ChunkSize,
		SoftLimit: f.SoftLimit,
		Logger:    log.NewLogger("stream"),
	})
	if err != nil {
		common.Close(input)
		return err
	}

	var (
		writer io.Writer = os.Stdout
		closer io.Closer
		hasher *blake3.Hasher
	)
	if f.XZ {
		xzWriter, err := xz.NewWriter(os.Stdout)
		if err != nil {
			common.Close(source)
			return E.Cause(err, "create xz writer")
		}
		writer = xzWriter
		closer = xzWriter
	}
	if f.Digest {
		hasher = blake3.New(32, nil)
		writer = io.MultiWriter(hasher, writer)
	}
	sink := stream.NewWriterSink(writer, closer)

	var streamErr error
	source.OnError(func(err error, _ *stream.Stream) {
		logger.Error(err)
		streamErr = err
	})
	source.Pipe(sink)

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, loaded := <-osSignals; loaded {
			logger.Warn("interrupted")
			loop.Stop()
		}
	}()

	err = loop.Run()
	signal.Stop(osSignals)
	close(osSignals)
	if err != nil {
		return err
	}
	if !sink.Closed() {
		source.Close()
	}
	err = E.Errors(streamErr, sink.Err())
	if err != nil {
		return err
	}
	if hasher != nil {
		return common.Error(os.Stderr.WriteString(hex.EncodeToString(hasher.Sum(nil)) + "\n"))
	}
	return nil
}
