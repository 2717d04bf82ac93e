package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/jpegbench/internal/encoder"
	"github.com/AnyUserName/jpegbench/internal/jxl"
	"github.com/AnyUserName/jpegbench/internal/profile"
)

var codecsCmd = &cobra.Command{
	Use:   "codecs",
	Short: "List codec tokens, back-end availability and profiles",
	Args:  cobra.NoArgs,
	Run:   listCodecs,
}

func init() {
	rootCmd.AddCommand(codecsCmd)
}

func listCodecs(_ *cobra.Command, _ []string) {
	fmt.Println()
	fmt.Println("  jpeg codec tokens:")
	fmt.Println("    q<float>      quality target (default 100)")
	fmt.Println("    d<float>      butteraugli distance for the self-hosted encoder")
	fmt.Println("    sjpeg         encode with sjpeg")
	fmt.Println("    libjxl        encode with the self-hosted (jpegli) encoder")
	fmt.Println("    nr            with libjxl: match the libjpeg output size")
	fmt.Println("    yuv444|422|420|411  chroma subsampling")
	fmt.Println("    djxl8|djxl16  decode through a lossless JPEG XL round trip")
	fmt.Println()

	fmt.Println("  Back-ends:")
	reg := encoder.NewRegistry()
	for _, id := range reg.Identities() {
		fmt.Printf("    %-8s %s\n", id, availability(reg.Get(id).Available()))
	}
	fmt.Printf("    %-8s %s\n", "cjxl", availability(jxl.NewTranscoder().Available()))
	fmt.Printf("    %-8s %s\n", "djxl", availability(jxl.NewDecoder().Available()))
	fmt.Println()

	fmt.Println("  Profiles:")
	for _, name := range profile.Names() {
		p := profile.Get(name)
		fmt.Printf("    %-16s %s\n", name, p.Description)
		for _, c := range p.Codecs {
			fmt.Printf("      %s\n", c)
		}
	}
	fmt.Printf("\n  Default chroma subsampling: %s\n\n", cfg.Run.ChromaSubsampling)
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not installed"
}
