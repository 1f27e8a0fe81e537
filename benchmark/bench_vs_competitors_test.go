package benchmark_test

import (
	"io"
	"testing"

	"github.com/dzonerzy/go-optparse/optparse"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"
)

// Each scenario parses the same argument vector with optparse, pflag,
// cobra and urfave/cli. Competitors are rebuilt every iteration the way
// they are used in practice; optparse is measured both reused and rebuilt.

func simpleParser() *optparse.Parser {
	return optparse.New("bench", "benchmark app").
		Option("-p", "--port").Type(optparse.TypeInt).Default(8080).Help("Server port").Back().
		Option("-v", "--verbose").Action(optparse.ActionStoreTrue).Help("Verbose output").Back()
}

var simpleArgs = []string{"--port", "9000", "--verbose", "input.txt"}

func BenchmarkSimpleFlags_Optparse(b *testing.B) {
	p := simpleParser()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = p.Parse(simpleArgs)
	}
}

func BenchmarkSimpleFlags_OptparseRebuild(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = simpleParser().Parse(simpleArgs)
	}
}

func BenchmarkSimpleFlags_Pflag(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.IntP("port", "p", 8080, "Server port")
		fs.BoolP("verbose", "v", false, "Verbose output")
		_ = fs.Parse(simpleArgs)
	}
}

func BenchmarkSimpleFlags_Cobra(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cmd := &cobra.Command{
			Use: "bench",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		cmd.Flags().IntP("port", "p", 8080, "Server port")
		cmd.Flags().BoolP("verbose", "v", false, "Verbose output")
		cmd.SetArgs(simpleArgs)
		_ = cmd.Execute()
	}
}

func BenchmarkSimpleFlags_Urfave(b *testing.B) {
	args := append([]string{"bench"}, simpleArgs...)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Server port"},
				&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
			},
			Action: func(_ *cli.Context) error { return nil },
		}
		_ = app.Run(args)
	}
}

// Clustered short flags with an attached value.

var clusterArgs = []string{"-vqp9000", "-f", "out.txt", "input.txt"}

func BenchmarkShortCluster_Optparse(b *testing.B) {
	p := optparse.New("bench", "").
		Option("-v").Action(optparse.ActionStoreTrue).Back().
		Option("-q").Action(optparse.ActionStoreTrue).Back().
		Option("-p").Type(optparse.TypeInt).Back().
		Option("-f").Back()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = p.Parse(clusterArgs)
	}
}

func BenchmarkShortCluster_Pflag(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.BoolP("verbose", "v", false, "")
		fs.BoolP("quiet", "q", false, "")
		fs.IntP("port", "p", 0, "")
		fs.StringP("file", "f", "", "")
		_ = fs.Parse(clusterArgs)
	}
}

// Repeated options accumulating into a list.

var repeatArgs = []string{"--tag", "a", "--tag", "b", "--tag", "c", "--tag", "d"}

func BenchmarkRepeated_Optparse(b *testing.B) {
	p := optparse.New("bench", "").Option("--tag").Action(optparse.ActionAppend).Back()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = p.Parse(repeatArgs)
	}
}

func BenchmarkRepeated_Pflag(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.StringArray("tag", nil, "")
		_ = fs.Parse(repeatArgs)
	}
}

func BenchmarkRepeated_Urfave(b *testing.B) {
	args := append([]string{"bench"}, repeatArgs...)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name:   "bench",
			Flags:  []cli.Flag{&cli.StringSliceFlag{Name: "tag"}},
			Action: func(_ *cli.Context) error { return nil },
		}
		_ = app.Run(args)
	}
}

// Many flags: a realistic tool with a dozen options, half of them given.

var manyArgs = []string{
	"--flag1", "test1",
	"--flag2", "test2",
	"--flag3", "test3",
	"--port", "9000",
	"--verbose",
	"--debug",
}

func BenchmarkManyFlags_Optparse(b *testing.B) {
	p := optparse.New("bench", "benchmark app").
		Option("--flag1").Default("value1").Help("Flag 1").Back().
		Option("--flag2").Default("value2").Help("Flag 2").Back().
		Option("--flag3").Default("value3").Help("Flag 3").Back().
		Option("--flag4").Default("value4").Help("Flag 4").Back().
		Option("--flag5").Default("value5").Help("Flag 5").Back().
		Option("-p", "--port").Type(optparse.TypeInt).Default(8080).Help("Port").Back().
		Option("-v", "--verbose").Action(optparse.ActionStoreTrue).Help("Verbose").Back().
		Option("--debug").Action(optparse.ActionStoreTrue).Help("Debug").Back().
		Option("--quiet").Action(optparse.ActionStoreTrue).Help("Quiet").Back().
		Option("--force").Action(optparse.ActionStoreTrue).Help("Force").Back()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = p.Parse(manyArgs)
	}
}

func BenchmarkManyFlags_Cobra(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cmd := &cobra.Command{
			Use: "bench",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		cmd.Flags().String("flag1", "value1", "Flag 1")
		cmd.Flags().String("flag2", "value2", "Flag 2")
		cmd.Flags().String("flag3", "value3", "Flag 3")
		cmd.Flags().String("flag4", "value4", "Flag 4")
		cmd.Flags().String("flag5", "value5", "Flag 5")
		cmd.Flags().IntP("port", "p", 8080, "Port")
		cmd.Flags().BoolP("verbose", "v", false, "Verbose")
		cmd.Flags().Bool("debug", false, "Debug")
		cmd.Flags().Bool("quiet", false, "Quiet")
		cmd.Flags().Bool("force", false, "Force")
		cmd.SetArgs(manyArgs)
		_ = cmd.Execute()
	}
}

func BenchmarkManyFlags_Urfave(b *testing.B) {
	args := append([]string{"bench"}, manyArgs...)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "flag1", Value: "value1", Usage: "Flag 1"},
				&cli.StringFlag{Name: "flag2", Value: "value2", Usage: "Flag 2"},
				&cli.StringFlag{Name: "flag3", Value: "value3", Usage: "Flag 3"},
				&cli.StringFlag{Name: "flag4", Value: "value4", Usage: "Flag 4"},
				&cli.StringFlag{Name: "flag5", Value: "value5", Usage: "Flag 5"},
				&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port"},
				&cli.BoolFlag{Name: "verbose", Usage: "Verbose"},
				&cli.BoolFlag{Name: "debug", Usage: "Debug"},
				&cli.BoolFlag{Name: "quiet", Usage: "Quiet"},
				&cli.BoolFlag{Name: "force", Usage: "Force"},
			},
			Action: func(_ *cli.Context) error { return nil },
		}
		_ = app.Run(args)
	}
}
