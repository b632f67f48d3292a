package importer

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1256 = "windows-1256"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func DefaultEncodings() []string {
	return []string{EncodingUTF8, EncodingUTF16, EncodingWindows1256}
}

func SupportedEncodings() []string {
	return DefaultEncodings()
}

func encodingByName(name string) (string, error) {
	switch normalizeName(name) {
	case "utf8":
		return EncodingUTF8, nil
	case "utf16":
		return EncodingUTF16, nil
	case "windows1256", "cp1256":
		return EncodingWindows1256, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s (supported: %s)", name, strings.Join(SupportedEncodings(), ", "))
	}
}

// decode tries the candidates in order and returns the text of the first one that decodes cleanly.
func decode(data []byte, candidates []string) (string, string, error) {
	causes := make([]error, 0, len(candidates))
	for _, candidate := range candidates {
		name, err := encodingByName(candidate)
		if err != nil {
			causes = append(causes, err)
			continue
		}
		text, err := decodeAs(data, name)
		if err != nil {
			causes = append(causes, err)
			continue
		}
		return text, name, nil
	}
	return "", "", &EncodingError{Candidates: candidates, Causes: causes}
}

func decodeAs(data []byte, name string) (string, error) {
	var transformer transform.Transformer
	switch name {
	case EncodingUTF8:
		data = bytes.TrimPrefix(data, utf8BOM)
		transformer = encoding.UTF8Validator
	case EncodingUTF16:
		// Without a BOM any even-length ASCII payload would "decode" into garbage.
		transformer = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case EncodingWindows1256:
		transformer = charmap.Windows1256.NewDecoder()
	default:
		return "", fmt.Errorf("unsupported encoding: %s", name)
	}

	decoded, _, err := transform.Bytes(transformer, data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(decoded), nil
}
