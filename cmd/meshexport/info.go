package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/Faultbox/meshport/internal/capture"
	"github.com/Faultbox/meshport/pkg/formats"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Describe a model file (.stl, .glb) or a capture (.json, .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(cmd); err != nil {
				return err
			}
			return runInfo(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInfo(w io.Writer, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml":
		c, err := capture.Load(path)
		if err != nil {
			return err
		}
		return captureInfo(w, c)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext {
	case ".stl":
		return stlInfo(w, data)
	case ".glb":
		return glbInfo(w, data)
	default:
		return fmt.Errorf("%w: %q", formats.ErrUnknownFormat, ext)
	}
}

func stlInfo(w io.Writer, data []byte) error {
	s, err := formats.ParseSTL(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Format:    binary STL\n")
	fmt.Fprintf(w, "Size:      %d bytes\n", len(data))
	fmt.Fprintf(w, "Triangles: %d\n", len(s.Triangles))
	if lo, hi, ok := s.Bounds(); ok {
		fmt.Fprintf(w, "Bounds:    (%g, %g, %g) - (%g, %g, %g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	}
	return nil
}

func glbInfo(w io.Writer, data []byte) error {
	g, err := formats.ParseGLB(data)
	if err != nil {
		return err
	}
	fields := gjson.GetManyBytes(g.JSON,
		"asset.version", "asset.generator", "scenes.0.name",
		"nodes.#", "meshes.#", "materials.#", "accessors.#",
	)

	vertices, triangles := 0, 0
	for _, m := range g.Document.Meshes {
		for _, p := range m.Primitives {
			if pos, ok := p.Attributes["POSITION"]; ok && pos < len(g.Document.Accessors) {
				vertices += g.Document.Accessors[pos].Count
			}
			if p.Indices < len(g.Document.Accessors) {
				triangles += g.Document.Accessors[p.Indices].Count / 3
			}
		}
	}

	fmt.Fprintf(w, "Format:    binary glTF %d (asset %s, generator %q)\n", g.Version, fields[0].String(), fields[1].String())
	fmt.Fprintf(w, "Size:      %d bytes (JSON %d, BIN %d)\n", g.Length, len(g.JSON), len(g.Binary))
	fmt.Fprintf(w, "Scene:     %q\n", fields[2].String())
	fmt.Fprintf(w, "Nodes:     %d\n", fields[3].Int())
	fmt.Fprintf(w, "Meshes:    %d\n", fields[4].Int())
	fmt.Fprintf(w, "Materials: %d\n", fields[5].Int())
	fmt.Fprintf(w, "Accessors: %d\n", fields[6].Int())
	fmt.Fprintf(w, "Vertices:  %d\n", vertices)
	fmt.Fprintf(w, "Triangles: %d\n", triangles)
	return nil
}

func captureInfo(w io.Writer, c *capture.Capture) error {
	raws, err := c.Records()
	if err != nil {
		return err
	}
	instanced := 0
	for _, s := range c.Surfaces {
		if len(s.Instances) > 0 {
			instanced++
		}
	}

	fmt.Fprintf(w, "Surfaces:  %d (%d instanced)\n", len(c.Surfaces), instanced)
	fmt.Fprintf(w, "Records:   %d\n", len(raws))
	if v := c.Viewport; v != nil {
		fmt.Fprintf(w, "Viewport:  x[%g, %g] y[%g, %g] z[%g, %g]\n", v.XMin, v.XMax, v.YMin, v.YMax, v.ZMin, v.ZMax)
	} else {
		fmt.Fprintf(w, "Viewport:  none\n")
	}
	return nil
}
