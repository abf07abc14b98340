package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/netpulse/devicemngr/internal/snapshot"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	return slices.Contains([]string{formatText, formatJSON, formatYAML}, f)
}

// render writes the redacted snapshot to w.
func render(w io.Writer, s *snapshot.Snapshot, format string) error {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()

	case formatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SECTION\tKEY\tENV\tVALUE")
		for e := range s.RenderRedacted() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Section, e.Key, e.Env, e.Display)
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q", format)
}
