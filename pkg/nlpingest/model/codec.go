package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Binary model files start with this magic followed by a format version.
var binaryMagic = []byte("NLPM")

const binaryVersion byte = 1

// ErrBadMagic is returned when a binary model does not start with the expected header.
var ErrBadMagic = errors.New("not a binary model file")

// ReadFile loads a model, choosing the codec from the file extension:
// .yaml and .yml are read as YAML, anything else as the binary format.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if isYAML(path) {
		return DecodeYAML(r)
	}
	return DecodeBinary(r)
}

// WriteFile stores a model, choosing the codec from the file extension.
func WriteFile(path string, m *Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if isYAML(path) {
		err = EncodeYAML(w, m)
	} else {
		err = EncodeBinary(w, m)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeYAML reads a model definition in YAML form.
func DecodeYAML(r io.Reader) (*Model, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode yaml model: %w", err)
	}
	return New(def)
}

// EncodeYAML writes the model definition as YAML.
func EncodeYAML(w io.Writer, m *Model) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m.Definition()); err != nil {
		return fmt.Errorf("encode yaml model: %w", err)
	}
	return enc.Close()
}

// DecodeBinary reads a zstd-compressed gob model preceded by the magic header.
func DecodeBinary(r io.Reader) (*Model, error) {
	header := make([]byte, len(binaryMagic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read model header: %w", err)
	}
	if !bytes.Equal(header[:len(binaryMagic)], binaryMagic) {
		return nil, ErrBadMagic
	}
	if v := header[len(binaryMagic)]; v != binaryVersion {
		return nil, fmt.Errorf("unsupported model format version %d", v)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open model stream: %w", err)
	}
	defer zr.Close()

	var def Definition
	if err := gob.NewDecoder(zr).Decode(&def); err != nil {
		return nil, fmt.Errorf("decode binary model: %w", err)
	}
	return New(def)
}

// EncodeBinary writes the model in the binary format.
func EncodeBinary(w io.Writer, m *Model) error {
	if _, err := w.Write(binaryMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{binaryVersion}); err != nil {
		return err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("open model stream: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(m.Definition()); err != nil {
		zw.Close()
		return fmt.Errorf("encode binary model: %w", err)
	}
	return zw.Close()
}
