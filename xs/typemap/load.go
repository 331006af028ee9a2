package typemap

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/glueforge/xsgen/errors"
)

// SupportedFormat is the semver constraint accepted for typemap files
const SupportedFormat = "^1"

// fileDoc mirrors the on-disk TOML typemap layout:
//
//	format = "1.0.0"
//
//	[types."obj_t *"]
//	xstype = "T_PTROBJ"
//
//	[inputmap.T_CUSTOM]
//	code = '''
//	$var = ($type)decode_custom($arg)
//	'''
type fileDoc struct {
	Format   string               `toml:"format"`
	Types    map[string]fileType  `toml:"types"`
	Inputmap map[string]fileInput `toml:"inputmap"`
}

type fileType struct {
	XSType string `toml:"xstype"`
	Proto  string `toml:"proto"`
}

type fileInput struct {
	Code string `toml:"code"`
}

// LoadFile layers the typemap definitions from a TOML file onto m.
// The file's format version is validated against SupportedFormat first.
func LoadFile(m *Map, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read typemap file %s", path)
	}
	return loadBytes(m, path, data)
}

func loadBytes(m *Map, path string, data []byte) error {
	var doc fileDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return errors.Wrapf(err, "failed to parse typemap file %s", path)
	}

	if doc.Format == "" {
		return errors.Newf("typemap file %s is missing the required 'format' field", path)
	}
	v, err := semver.NewVersion(doc.Format)
	if err != nil {
		return errors.Wrapf(err, "typemap file %s has invalid format version %q", path, doc.Format)
	}
	constraint, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return errors.Wrap(err, "invalid supported-format constraint")
	}
	if !constraint.Check(v) {
		return errors.Newf("typemap file %s format %s is outside the supported range %s",
			path, doc.Format, SupportedFormat)
	}

	for ctype, t := range doc.Types {
		if t.XSType == "" {
			return errors.Newf("typemap file %s: type %q has no xstype tag", path, ctype)
		}
		m.AddEntry(ctype, t.XSType, t.Proto)
	}
	for tag, in := range doc.Inputmap {
		if in.Code == "" {
			return errors.Newf("typemap file %s: inputmap entry %q has no code", path, tag)
		}
		m.AddInputTemplate(tag, in.Code)
	}
	return nil
}
