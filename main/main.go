package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	goio "io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/io"
	"github.com/phil-mansfield/diffgrowth/render"
)

const viewDelay = 30 * time.Millisecond

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		growthFile, convert, exampleConfig string
		output, format                     string
		steps                              int
		tui, view                          bool
	)
	vars := map[string]*string{
		"Growth":        &growthFile,
		"Convert":       &convert,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&growthFile, "Growth", "",
		"Configuration file for [Growth] mode.",
	)
	flag.StringVar(
		&convert, "Convert", "",
		"Binary snapshot to convert to the format given by -Format.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is 'Growth'.",
	)
	flag.StringVar(&output, "Output", "", "Overrides the 'Output' value.")
	flag.StringVar(
		&format, "Format", "", "Overrides the 'OutputFormat' value. One of "+
			strings.Join(io.OutputFormats, ", ")+".",
	)
	flag.IntVar(&steps, "Steps", 0, "Overrides the 'Steps' value.")
	flag.BoolVar(&tui, "TUI", false, "Shows a progress dashboard while running.")
	flag.BoolVar(&view, "View", false, "Draws the geometry while it grows.")

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Growth":
		con, err := io.ReadGrowthConfig(growthFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if output != "" {
			con.Output = output
		}
		if format != "" {
			con.OutputFormat = format
		}
		if steps > 0 {
			con.Steps = steps
		}
		if err := con.CheckInit(); err != nil {
			log.Fatal(err.Error())
		} else if tui && view {
			log.Fatal("Only one of -TUI and -View can be set.")
		}

		growthMain(con, tui, view)

	case "Convert":
		if output == "" {
			log.Fatal("-Convert needs an -Output file.")
		} else if format == "" {
			log.Fatal("-Convert needs a -Format.")
		}
		convertMain(convert, output, format)

	case "ExampleConfig":
		switch strings.ToLower(exampleConfig) {
		case "growth":
			fmt.Println(io.ExampleGrowthFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only recognized " +
					"argument is 'Growth'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but diffgrowth "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func growthSetupIO(con *io.GrowthConfig) *FileGroup {
	fg := &FileGroup{}
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func growthMain(con *io.GrowthConfig, tui, view bool) {
	fg := growthSetupIO(con)
	defer fg.Close()

	p, err := con.Params()
	if err != nil {
		log.Fatal(err.Error())
	}
	dom, err := con.SeedDomain(p)
	if err != nil {
		log.Fatal(err.Error())
	}
	sim, err := growth.NewSimulation(dom, p)
	if err != nil {
		log.Fatal(err.Error())
	}
	if con.Workers != io.Unset {
		sim.Workers(con.Workers)
	}

	// Per-step logging would draw over the terminal UIs.
	interactive := tui || view
	sim.Log(!interactive || con.ValidLogFile())
	log.Printf("Growing a %s from %d elements for %d steps.",
		p.Variant, sim.Len(), con.Steps)

	switch {
	case tui:
		final, err := tea.NewProgram(
			render.NewDashboard(sim, con.Steps), tea.WithAltScreen(),
		).Run()
		if err != nil {
			log.Fatal(err.Error())
		}
		if err := final.(render.Dashboard).Err(); err != nil {
			log.Fatal(err.Error())
		}
	case view:
		if err := viewMain(sim, con.Steps); err != nil {
			log.Fatal(err.Error())
		}
	default:
		for i := 0; i < con.Steps; i++ {
			rep, err := sim.Step(nil)
			if err != nil {
				log.Fatal(err.Error())
			}
			if rep.Capped {
				log.Printf("Reached MaxElementCount = %d after %d steps.",
					p.MaxElementCount, sim.StepCount())
				break
			}
		}
	}

	for _, d := range sim.Diagnostics() {
		log.Println("Diagnostic:", d)
	}

	snap := sim.Snapshot()
	log.Printf("Finished with %d elements after %d steps.",
		snap.Len(), snap.Step)

	plots := false
	if con.ValidOutput() {
		plots = con.Format() == "Plot"
		if err := writeOutput(con.Output, con.Format(), snap, con.Workers); err != nil {
			log.Fatal(err.Error())
		}
		log.Printf("Wrote %s to %s.", con.Format(), con.Output)
	}

	if con.ValidHistoryFile() {
		if con.Format() == "Plot" {
			render.PlotHistory(sim.History(), con.HistoryFile)
			plots = true
		} else {
			err := io.WriteFile(con.HistoryFile, func(w goio.Writer) error {
				return io.WriteHistory(w, sim.History())
			})
			if err != nil {
				log.Fatal(err.Error())
			}
		}
	}

	if plots {
		render.Execute()
	}
}

func viewMain(sim *growth.Simulation, steps int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	_, err = render.NewViewer(screen).Run(sim, steps, viewDelay)
	return err
}

// writeOutput writes snap to fname. Plots are only queued, and are drawn
// by render.Execute.
func writeOutput(
	fname, format string, snap *growth.Snapshot, workers int,
) error {
	switch format {
	case "Table":
		return io.WriteFile(fname, func(w goio.Writer) error {
			return io.WriteTable(w, snap)
		})
	case "OBJ":
		return io.WriteFile(fname, func(w goio.Writer) error {
			return io.WriteOBJ(w, snap)
		})
	case "SVG":
		return io.WriteFile(fname, func(w goio.Writer) error {
			return render.WriteSVG(w, snap)
		})
	case "Binary":
		return io.WriteFile(fname, func(w goio.Writer) error {
			return io.WriteSnapshot(w, snap, binary.LittleEndian)
		})
	case "Plot":
		render.PlotSnapshot(snap, fname)
		ext := filepath.Ext(fname)
		base := strings.TrimSuffix(fname, ext)
		err := render.PlotEdgeLengths(snap, base+"_edges"+ext, workers)
		if err != nil {
			return err
		}
		return render.PlotRadialDistances(snap, base+"_radii"+ext, workers)
	}
	return fmt.Errorf("Unrecognized output format '%s'.", format)
}

func convertMain(input, output, format string) {
	f, err := os.Open(input)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer f.Close()

	snap, err := io.ReadSnapshot(f)
	if err != nil {
		log.Fatal(err.Error())
	}

	con := &io.GrowthConfig{OutputFormat: format}
	if err := writeOutput(output, con.Format(), snap, 1); err != nil {
		log.Fatal(err.Error())
	}
	if con.Format() == "Plot" {
		render.Execute()
	}
	log.Printf("Converted %s to %s.", input, output)
}
