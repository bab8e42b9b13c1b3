// Package report implements the data-collection module: it samples a
// population's trait statistics on a schedule and writes the collected
// series as a CSV file when the run finishes.
package report

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"demiurge/internal/control"
	"demiurge/internal/params"
	"demiurge/internal/stats"
)

// Row is one sampled data point of the collected series.
type Row struct {
	Update   int     `csv:"update"`
	NumOrgs  int     `csv:"num_orgs"`
	Min      float64 `csv:"min"`
	Max      float64 `csv:"max"`
	Mean     float64 `csv:"mean"`
	StdDev   float64 `csv:"std_dev"`
	Entropy  float64 `csv:"entropy"`
	Dominant string  `csv:"dominant"`
}

// DataCollect samples one population each update_step updates and, on
// exit, writes the series to output_file. The numeric columns summarize
// data_trait; the diversity columns describe genome_trait.
type DataCollect struct {
	control.Core

	Target      string
	DataTrait   string
	GenomeTrait string
	UpdateStep  int
	OutputFile  string

	rows []*Row
}

func NewDataCollect(ctrl *control.Controller, name string, p map[string]any) (*DataCollect, error) {
	dec := params.NewDecoder(p)
	m := &DataCollect{
		Core: control.NewCore(ctrl, name, "Collect per-update trait statistics into a CSV series.",
			control.Signals(control.SigOnUpdate, control.SigBeforeExit)),
		Target:      dec.String("target", ""),
		DataTrait:   dec.String("data_trait", "fitness"),
		GenomeTrait: dec.String("genome_trait", ""),
		UpdateStep:  dec.Int("update_step", 1),
		OutputFile:  dec.String("output_file", "output.csv"),
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DataCollect) SetupConfig() error {
	if m.UpdateStep < 1 {
		return fmt.Errorf("update_step must be at least 1, got %d", m.UpdateStep)
	}
	return nil
}

func (m *DataCollect) SetupModule() error {
	if m.Ctrl().GetPopulationByName(m.Target) == nil {
		return fmt.Errorf("data-collect target %q is not a population", m.Target)
	}
	return nil
}

func (m *DataCollect) OnUpdate(update int) {
	if update%m.UpdateStep != 0 {
		return
	}
	m.Sample(update)
}

// Sample records one data point immediately, independent of the
// schedule.
func (m *DataCollect) Sample(update int) {
	pop := m.Ctrl().GetPopulationByName(m.Target)
	summary := stats.Summarize(pop, m.DataTrait)
	row := &Row{
		Update:  update,
		NumOrgs: pop.NumOrgs(),
		Min:     summary.Min,
		Max:     summary.Max,
		Mean:    summary.Mean,
		StdDev:  summary.StdDev,
	}
	if m.GenomeTrait != "" {
		genomes := stats.CollectString(pop, m.GenomeTrait)
		row.Entropy = stats.ShannonEntropy(genomes)
		row.Dominant, _ = stats.Dominant(genomes)
	}
	m.rows = append(m.rows, row)
}

// Rows exposes the collected series.
func (m *DataCollect) Rows() []*Row { return m.rows }

func (m *DataCollect) BeforeExit() {
	if err := m.Flush(); err != nil {
		m.Ctrl().Notifier().Warningf("data-collect %s: %v", m.Name(), err)
	}
}

// Flush writes the collected series to the configured output file.
func (m *DataCollect) Flush() error {
	f, err := os.Create(m.OutputFile)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&m.rows, f)
}

func init() {
	control.MustRegisterType(control.TypeInfo{
		Name: "DataCollect",
		Desc: "Collect per-update trait statistics into a CSV series.",
		Factory: func(ctrl *control.Controller, name string, p map[string]any) (control.Module, error) {
			return NewDataCollect(ctrl, name, p)
		},
		Members: []control.MemberFunc{{
			Name: "SAMPLE",
			Desc: "Record one data point now.",
			Fn: func(ctrl *control.Controller, mod control.Module, _ []any) (any, error) {
				dc, ok := mod.(*DataCollect)
				if !ok {
					return nil, fmt.Errorf("SAMPLE requires a DataCollect module")
				}
				dc.Sample(ctrl.Update())
				return len(dc.rows), nil
			},
		}, {
			Name: "FLUSH",
			Desc: "Write the collected series to the output file now.",
			Fn: func(_ *control.Controller, mod control.Module, _ []any) (any, error) {
				dc, ok := mod.(*DataCollect)
				if !ok {
					return nil, fmt.Errorf("FLUSH requires a DataCollect module")
				}
				return nil, dc.Flush()
			},
		}},
	})
}
