package io

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/diffgrowth/growth"
)

// WriteTable writes one row per element with columns for X, Y, Z, and the
// collision radius. The header lines start with '#', so the result can be
// read back with ReadSeedPoints.
func WriteTable(w io.Writer, snap *growth.Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Variant: %s\n", snap.Variant)
	fmt.Fprintf(bw, "# Step: %d\n", snap.Step)
	fmt.Fprintf(bw, "# Elements: %d\n", snap.Len())
	if snap.Variant == growth.Curve {
		fmt.Fprintf(bw, "# Closed: %v\n", snap.Closed)
	}
	fmt.Fprintln(bw, "# Column 0 - X")
	fmt.Fprintln(bw, "# Column 1 - Y")
	fmt.Fprintln(bw, "# Column 2 - Z")
	fmt.Fprintln(bw, "# Column 3 - Radius")

	for i, p := range snap.Positions {
		fmt.Fprintf(bw, "%.10g %.10g %.10g %.10g\n", p.X, p.Y, p.Z, snap.Radii[i])
	}
	return bw.Flush()
}

// WriteHistory writes the element count after every step, one step per
// row.
func WriteHistory(w io.Writer, history []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Column 0 - Step")
	fmt.Fprintln(bw, "# Column 1 - Elements")
	for i, n := range history {
		fmt.Fprintf(bw, "%d %d\n", i, n)
	}
	return bw.Flush()
}

// WriteOBJ writes a snapshot as a Wavefront OBJ file. Meshes are written
// as faces, curves as a single line element, and points as bare vertices.
func WriteOBJ(w io.Writer, snap *growth.Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s at step %d\n", snap.Variant, snap.Step)
	for _, p := range snap.Positions {
		fmt.Fprintf(bw, "v %.10g %.10g %.10g\n", p.X, p.Y, p.Z)
	}

	switch snap.Variant {
	case growth.Mesh:
		for _, t := range snap.Triangles {
			fmt.Fprintf(bw, "f %d %d %d\n", t[0]+1, t[1]+1, t[2]+1)
		}
	case growth.Curve:
		if snap.Len() > 1 {
			fmt.Fprint(bw, "l")
			for i := range snap.Positions {
				fmt.Fprintf(bw, " %d", i+1)
			}
			if snap.Closed {
				fmt.Fprint(bw, " 1")
			}
			fmt.Fprintln(bw)
		}
	}
	return bw.Flush()
}

// WriteFile creates fname and writes to it with write.
func WriteFile(fname string, write func(io.Writer) error) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
