package io

import (
	"encoding/binary"
	"io"

	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Flag written at the start of binary snapshots. Snapshots of either
// endianness can be read.
const (
	littleEndianFlag int32 = 0
	bigEndianFlag    int32 = -1
)

/*
The binary format used for snapshots is as follows:
    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --||-- 5 --||-- 6 --|

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a
        little endian byte ordering and -1 indicates a big endian byte order.
    2 - (int32) Size of a SnapshotHeader struct. Should be checked for
        consistency.
    3 - (SnapshotHeader) Header containing meta-information about the
        snapshot.
    4 - ([][3]float64) Contiguous block of x, y, z coordinates.
    5 - ([]float64) Collision radius of every element.
    6 - ([][3]int64) Vertex indices of every triangle. Only meshes have
        triangles.
*/
type SnapshotHeader struct {
	Variant, Step         int64
	Count, TriangleCount int64
	// Closed is 1 for closed curves and 0 otherwise.
	Closed int64
}

// endianness converts an endianness flag to a byte order.
func endianness(flag int32) (binary.ByteOrder, error) {
	switch flag {
	case littleEndianFlag:
		return binary.LittleEndian, nil
	case bigEndianFlag:
		return binary.BigEndian, nil
	}
	return nil, errors.Errorf("Unrecognized endianness flag, %d.", flag)
}

// WriteSnapshot writes snap to w in the binary snapshot format with the
// given byte order.
func WriteSnapshot(
	w io.Writer, snap *growth.Snapshot, order binary.ByteOrder,
) error {
	flag := littleEndianFlag
	if order == binary.BigEndian {
		flag = bigEndianFlag
	}

	hd := SnapshotHeader{
		Variant:       int64(snap.Variant),
		Step:          int64(snap.Step),
		Count:         int64(snap.Len()),
		TriangleCount: int64(len(snap.Triangles)),
	}
	if snap.Closed {
		hd.Closed = 1
	}

	xs := make([][3]float64, len(snap.Positions))
	for i, p := range snap.Positions {
		xs[i] = [3]float64{p.X, p.Y, p.Z}
	}
	tris := make([][3]int64, len(snap.Triangles))
	for i, t := range snap.Triangles {
		tris[i] = [3]int64{int64(t[0]), int64(t[1]), int64(t[2])}
	}

	data := []interface{}{
		flag, int32(binary.Size(hd)), &hd, xs, snap.Radii, tris,
	}
	for _, x := range data {
		if err := binary.Write(w, order, x); err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshotHeader reads the header at the start of a binary snapshot and
// returns it along with the byte order of the file.
func ReadSnapshotHeader(r io.Reader) (*SnapshotHeader, binary.ByteOrder, error) {
	var flag, size int32
	// Order doesn't matter for this read, since the flags are symmetric.
	if err := binary.Read(r, binary.LittleEndian, &flag); err != nil {
		return nil, nil, err
	}
	order, err := endianness(flag)
	if err != nil {
		return nil, nil, err
	}

	if err := binary.Read(r, order, &size); err != nil {
		return nil, nil, err
	}
	hd := &SnapshotHeader{}
	if int(size) != binary.Size(hd) {
		return nil, nil, errors.Errorf(
			"Snapshot header has size %d, but expected %d.",
			size, binary.Size(hd),
		)
	}
	if err := binary.Read(r, order, hd); err != nil {
		return nil, nil, err
	}

	if hd.Count < 0 || hd.TriangleCount < 0 {
		return nil, nil, errors.Errorf(
			"Snapshot header has %d elements and %d triangles.",
			hd.Count, hd.TriangleCount,
		)
	}
	return hd, order, nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*growth.Snapshot, error) {
	hd, order, err := ReadSnapshotHeader(r)
	if err != nil {
		return nil, err
	}

	xs := make([][3]float64, hd.Count)
	radii := make([]float64, hd.Count)
	tris := make([][3]int64, hd.TriangleCount)
	for _, x := range []interface{}{xs, radii, tris} {
		if err := binary.Read(r, order, x); err != nil {
			return nil, errors.Wrap(err, "Snapshot is truncated")
		}
	}

	snap := &growth.Snapshot{
		Variant:   growth.Variant(hd.Variant),
		Step:      int(hd.Step),
		Positions: make([]r3.Vec, hd.Count),
		Radii:     radii,
		Closed:    hd.Closed != 0,
	}
	for i, x := range xs {
		snap.Positions[i] = r3.Vec{X: x[0], Y: x[1], Z: x[2]}
	}
	if hd.TriangleCount > 0 {
		snap.Triangles = make([][3]int, hd.TriangleCount)
		for i, t := range tris {
			for j := range t {
				if t[j] < 0 || t[j] >= hd.Count {
					return nil, errors.Errorf(
						"Triangle %d refers to vertex %d, but there are "+
							"only %d vertices.", i, t[j], hd.Count,
					)
				}
				snap.Triangles[i][j] = int(t[j])
			}
		}
	}
	return snap, nil
}
