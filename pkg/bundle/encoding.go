// Copyright 2026 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bundle

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Encoding is the transfer encoding of the bundle on the exec stdin
type Encoding string

const (
	// EncodingXZ sends the artifact as is, decoded with xz in the container
	EncodingXZ Encoding = "xz"

	// EncodingGzip sends the artifact recompressed with gzip
	EncodingGzip Encoding = "gzip"

	// EncodingPlain sends the decompressed artifact
	EncodingPlain Encoding = "plain"
)

// negotiate lists the encodings the container can decode, given the output
// of the tools probe, best first. Plain is always the last resort.
func negotiate(tools string) []Encoding {
	available := map[string]bool{}
	for _, t := range strings.Fields(tools) {
		available[t] = true
	}
	var result []Encoding
	for _, enc := range []Encoding{EncodingXZ, EncodingGzip} {
		if available[string(enc)] {
			result = append(result, enc)
		}
	}
	return append(result, EncodingPlain)
}

// encode returns the bytes sent to the container for the artifact
func encode(a *Artifact, enc Encoding) ([]byte, error) {
	if enc == EncodingXZ {
		return a.Data, nil
	}

	r, err := xz.NewReader(bytes.NewReader(a.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", a.Name, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress '%s': %w", a.Name, err)
	}

	switch enc {
	case EncodingPlain:
		return plain, nil
	case EncodingGzip:
		buf := &bytes.Buffer{}
		w, err := gzip.NewWriterLevel(buf, gzip.BestSpeed)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(plain); err != nil {
			return nil, fmt.Errorf("failed to compress '%s': %w", a.Name, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to compress '%s': %w", a.Name, err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown encoding '%s'", enc)
	}
}
