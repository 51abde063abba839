package InputParameters

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// ConverterParameters tune a conversion run
type ConverterParameters struct {
	Workers   int    // concurrent instance assemblies
	Dedupe    bool   // drop repeated field matches within a frame
	OutputDir string // defaults to the database directory
}

func DefaultConverterParameters() ConverterParameters {
	return ConverterParameters{
		Workers: runtime.NumCPU(),
		Dedupe:  true,
	}
}

// NewConverterParameters reads the "workers", "dedupe" and "output" keys,
// falling back to the defaults for unset keys
func NewConverterParameters(v *viper.Viper) (cp ConverterParameters) {
	cp = DefaultConverterParameters()
	if v.IsSet("workers") && v.GetInt("workers") > 0 {
		cp.Workers = v.GetInt("workers")
	}
	if v.IsSet("dedupe") {
		cp.Dedupe = v.GetBool("dedupe")
	}
	cp.OutputDir = v.GetString("output")
	return
}

func (cp ConverterParameters) Print() {
	fmt.Printf("[%d]\t\t\t\t= Workers\n", cp.Workers)
	fmt.Printf("[%v]\t\t\t\t= Dedupe Field Matches\n", cp.Dedupe)
	if cp.OutputDir != "" {
		fmt.Printf("\"%s\"\t\t= Output Directory\n", cp.OutputDir)
	}
}
