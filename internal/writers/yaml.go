package writers

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"sampass/pkg/api"
)

func init() { Register("yaml", writeYAML) }

// writeYAML renders into memory first: yaml.v3 reports writer failures as
// plain strings, which would hide a broken pipe.
func writeYAML(w io.Writer, doc api.DocumentV1) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
