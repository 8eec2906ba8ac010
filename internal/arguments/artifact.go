package arguments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Bidon15/vrfdeploy"
)

const (
	modulePrefix = "module.exports = "
	moduleSuffix = ";"
)

// Render serializes args into a CommonJS module whose export is the same
// array, formatted like JSON.stringify(args, null, 2).
func Render(args []any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(args); err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(modulePrefix)
	out.Write(bytes.TrimRight(body.Bytes(), "\n"))
	out.WriteString(moduleSuffix)
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Write renders args and replaces the file at path. The content is written
// to a temporary file in the same directory first, then renamed into place.
func Write(path string, args []any) error {
	data, err := Render(args)
	if err != nil {
		return fmt.Errorf("%w: %w", vrfdeploy.ErrPersist, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".arguments-*.js.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", vrfdeploy.ErrPersist, err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write file: %w", vrfdeploy.ErrPersist, err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod: %w", vrfdeploy.ErrPersist, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %w", vrfdeploy.ErrPersist, err)
	}
	return nil
}

// Load reads an arguments module written by Write and returns the exported
// array. Non-negative integers decode as uint64, negative integers as int64
// and any other number as float64.
func Load(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arguments: %w", err)
	}
	return Parse(data)
}

// Parse is Load on in-memory content.
func Parse(data []byte) ([]any, error) {
	src := strings.TrimSpace(string(data))
	if !strings.HasPrefix(src, modulePrefix) {
		return nil, fmt.Errorf("arguments module must start with %q", strings.TrimSpace(modulePrefix))
	}
	src = strings.TrimPrefix(src, modulePrefix)
	src = strings.TrimSuffix(strings.TrimSpace(src), moduleSuffix)

	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode arguments array: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected content after arguments array")
	}

	out := make([]any, len(raw))
	for i, v := range raw {
		nv, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = nv
	}
	return out, nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return u, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %s out of range", s)
		}
		return f, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	default:
		return v, nil
	}
}
