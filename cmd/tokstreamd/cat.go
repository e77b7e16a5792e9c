package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tokstream/internal/utf8stream"
)

type catFlags struct {
	fragment int
	mark     string
	stats    bool
}

func newCatCmd(opts *rootOptions) *cobra.Command {
	var f catFlags
	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Reassemble stdin into code-point aligned chunks on stdout",
		Long: "cat reads stdin in fixed-size fragments, as an engine would emit them,\n" +
			"and writes each aligned chunk to stdout. Use --mark to see chunk boundaries.",
		Example: "  printf 'h\\xc3\\xa9llo' | tokstreamd cat --fragment 1 --mark",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.fragment <= 0 {
				return fmt.Errorf("--fragment must be positive, got %d", f.fragment)
			}
			st, err := runCat(opts.stdin, opts.stdout, f)
			if err != nil {
				return err
			}
			if f.stats {
				log, err := opts.logger("", "")
				if err != nil {
					return err
				}
				log.Info().Interface("stats", st).Msg("cat done")
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.fragment, "fragment", 3, "Bytes read from stdin per fragment")
	fl.StringVar(&f.mark, "mark", "", "Separator written after every chunk (--mark alone uses '|')")
	fl.Lookup("mark").NoOptDefVal = "|"
	fl.BoolVar(&f.stats, "stats", false, "Log chunk statistics to stderr when done")
	return cmd
}

// runCat copies r to w through a utf8stream.Writer, reading at most
// f.fragment bytes at a time.
func runCat(r io.Reader, w io.Writer, f catFlags) (utf8stream.Stats, error) {
	sw := utf8stream.NewWriter(func(chunk []byte) error {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if f.mark != "" {
			_, err := io.WriteString(w, f.mark)
			return err
		}
		return nil
	})
	buf := make([]byte, f.fragment)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := sw.Write(buf[:n]); err != nil {
				return sw.Stats(), err
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return sw.Stats(), fmt.Errorf("read stdin: %w", rerr)
		}
	}
	err := sw.Close()
	return sw.Stats(), err
}

