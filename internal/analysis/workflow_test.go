package analysis_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trplsim/internal/analysis"
	"github.com/san-kum/trplsim/internal/codec"
	"github.com/san-kum/trplsim/internal/synth"
	"github.com/san-kum/trplsim/internal/trpl"
)

func csvFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	Expect(err).NotTo(HaveOccurred())
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			out = append(out, e.Name())
		}
	}
	return out
}

func writeFixture(path string, d *trpl.Dataset) {
	Expect(codec.WriteFile(path, codec.Arrow{}, d)).To(Succeed())
}

// inTempDir runs each spec from a fresh working directory.
func inTempDir() string {
	prev, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	dir := GinkgoT().TempDir()
	Expect(os.Chdir(dir)).To(Succeed())
	DeferCleanup(os.Chdir, prev)
	return dir
}

var _ = Describe("carrier_relaxation", func() {
	var (
		engine *analysis.Engine
		dir    string
		file   string
	)

	BeforeEach(func() {
		engine = analysis.NewEngine(nil)
		dir = inTempDir()
		file = filepath.Join(dir, "dummy_data.arrow")

		d, err := synth.GenerateDefault(0)
		Expect(err).NotTo(HaveOccurred())
		writeFixture(file, d)
	})

	It("is executable", func() {
		report, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{File: file})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows).To(Equal(307200))
		Expect(report.PeakWavelength).To(BeNumerically("~", 236, 10))
		Expect(report.Fit).NotTo(BeNil())
		Expect(report.Fit.Tau).To(BeNumerically(">", 0))
		Expect(csvFiles(dir)).To(ConsistOf("dummy_data_time_resolved.csv", "dummy_data_wavelength_resolved.csv"))
	})

	It("writes two CSV files into outputdir", func() {
		_, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{
			File:      file,
			OutputDir: "output",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect("output").To(BeADirectory())
		Expect(csvFiles("output")).To(HaveLen(2))
		Expect(csvFiles(dir)).To(BeEmpty())
	})

	It("accepts a wavelength range outside the axis", func() {
		report, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{
			File:            file,
			WavelengthRange: &[2]float64{920, 1000},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows).To(Equal(0))
		Expect(report.Fit).To(BeNil())
	})

	It("narrows the spectrum to the wavelength range", func() {
		report, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{
			File:            file,
			WavelengthRange: &[2]float64{220, 250},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows).To(BeNumerically(">", 0))
		for _, w := range report.Wavelengths {
			Expect(w).To(BeNumerically(">=", 220))
			Expect(w).To(BeNumerically("<=", 250))
		}
	})

	It("writes nothing when dump_csv is false", func() {
		off := false
		_, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{
			File:      file,
			OutputDir: "output",
			DumpCSV:   &off,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(csvFiles(dir)).To(BeEmpty())
		Expect("output").NotTo(BeAnExistingFile())
	})

	It("propagates load errors", func() {
		_, err := engine.Execute(context.Background(), analysis.CarrierRelaxation, analysis.Params{File: "missing.arrow"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("spin_relaxation", func() {
	var (
		engine *analysis.Engine
		dir    string
		rrPath string
		rlPath string
	)

	BeforeEach(func() {
		engine = analysis.NewEngine(nil)
		dir = inTempDir()
		rrPath = filepath.Join(dir, "dummy_data_RR.arrow")
		rlPath = filepath.Join(dir, "dummy_data_RL.arrow")

		rr, err := synth.GenerateWith(230, 5, 0.05, 0.2, 0)
		Expect(err).NotTo(HaveOccurred())
		rl, err := synth.GenerateWith(230, 5, 0.05, 0.225, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(rl.RescaleToSum(0.8*float64(rr.Sum()), trpl.Apportion)).To(Succeed())

		writeFixture(rrPath, rr)
		writeFixture(rlPath, rl)
	})

	It("is executable", func() {
		report, err := engine.Execute(context.Background(), analysis.SpinRelaxation, analysis.Params{RR: rrPath, RL: rlPath})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows).To(Equal(307200))
		Expect(report.Polarization).To(HaveLen(480))
		for _, v := range report.Polarization {
			Expect(v).To(BeNumerically(">=", -1))
			Expect(v).To(BeNumerically("<=", 1))
		}
		Expect(csvFiles(dir)).To(ConsistOf("dummy_data_RR_spin_relaxation.csv"))
	})

	It("writes one CSV file into outputdir", func() {
		_, err := engine.Execute(context.Background(), analysis.SpinRelaxation, analysis.Params{
			RR:        rrPath,
			RL:        rlPath,
			OutputDir: "output",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(csvFiles("output")).To(HaveLen(1))
	})

	It("accepts a wavelength range outside the axis", func() {
		report, err := engine.Execute(context.Background(), analysis.SpinRelaxation, analysis.Params{
			RR:              rrPath,
			RL:              rlPath,
			WavelengthRange: &[2]float64{920, 1000},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Rows).To(Equal(0))
	})

	It("writes nothing when dump_csv is false", func() {
		off := false
		_, err := engine.Execute(context.Background(), analysis.SpinRelaxation, analysis.Params{
			RR:      rrPath,
			RL:      rlPath,
			DumpCSV: &off,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(csvFiles(dir)).To(BeEmpty())
	})

	It("requires both channels", func() {
		_, err := engine.Execute(context.Background(), analysis.SpinRelaxation, analysis.Params{RR: rrPath})
		Expect(err).To(MatchError(analysis.ErrMissingParameter))
	})
})

var _ = Describe("Engine", func() {
	It("rejects unknown notebooks", func() {
		_, err := analysis.NewEngine(nil).Execute(context.Background(), "lifetime_map", analysis.Params{})
		Expect(err).To(MatchError(ContainSubstring("unknown notebook")))
	})

	It("lists the built-in notebooks", func() {
		Expect(analysis.NewEngine(nil).Notebooks()).To(Equal([]string{analysis.CarrierRelaxation, analysis.SpinRelaxation}))
	})
})
