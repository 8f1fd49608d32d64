package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/nlpingest/internal/logger"
)

// maxLine bounds a single JSON document.
const maxLine = 16 << 20

// Read decodes one JSON object per line. Blank lines are skipped and
// malformed lines are logged and skipped. It fails if no object was read.
func Read(r io.Reader, name string) ([]map[string]any, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var docs []map[string]any
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
			logger.Get().WithFields(logrus.Fields{"file": name, "line": line}).
				WithError(err).Warn("Skipping malformed JSON line")
			continue
		}
		docs = append(docs, doc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no valid documents found in %s", name)
	}
	return docs, nil
}

// ReadFile loads documents from a JSONL file.
func ReadFile(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, path)
}

// Write encodes each document on its own line.
func Write(w io.Writer, docs []map[string]any) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document %d: %w", i, err)
		}
	}
	return bw.Flush()
}
