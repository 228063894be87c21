package wasm

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	werrors "github.com/wippyai/cwasm/errors"
	"github.com/wippyai/cwasm/wasm/internal/binary"
)

// Decoding errors. Match them with errors.Is.
var (
	ErrBadMagic            = werrors.Sentinel(werrors.PhaseDecode, werrors.KindBadMagic)
	ErrTruncated           = werrors.Sentinel(werrors.PhaseDecode, werrors.KindTruncated)
	ErrMalformedVarint     = werrors.Sentinel(werrors.PhaseDecode, werrors.KindMalformedVarint)
	ErrSectionSize         = werrors.Sentinel(werrors.PhaseDecode, werrors.KindSectionSize)
	ErrUnrecognizedSection = werrors.Sentinel(werrors.PhaseDecode, werrors.KindUnrecognizedSection)
	ErrUnsupportedVersion  = werrors.Sentinel(werrors.PhaseDecode, werrors.KindUnsupported)
	ErrInvalidTypeIndex    = werrors.Sentinel(werrors.PhaseValidate, werrors.KindInvalidTypeIndex)
	ErrMalformedModule     = werrors.Sentinel(werrors.PhaseValidate, werrors.KindMalformedModule)
)

// DecodeOptions configures DecodeModuleWithOptions.
type DecodeOptions struct {
	// StrictVersion rejects any header version other than Version.
	StrictVersion bool

	// HaltOnUnknownSection stops decoding at the first section whose
	// contents are not understood, leaving the rest in Module.Trailing.
	// By default such sections are skipped using their declared length.
	HaltOnUnknownSection bool

	// Validate runs Module.Validate on the assembled module.
	Validate bool
}

// DefaultDecodeOptions returns the default decoding configuration.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{}
}

// DecodeModule decodes a binary module with default options.
func DecodeModule(data []byte) (*Module, error) {
	return DecodeModuleWithOptions(data, DefaultDecodeOptions())
}

// DecodeModuleWithOptions decodes a fully materialized binary module.
// The input is not retained; every slice in the result is a copy.
func DecodeModuleWithOptions(data []byte, opts DecodeOptions) (*Module, error) {
	d := &decoder{
		opts: opts,
		log:  Logger(),
		m:    &Module{},
	}
	if err := d.decode(binary.NewReader(data)); err != nil {
		return nil, err
	}
	return d.m, nil
}

type decoder struct {
	log       *zap.Logger
	m         *Module
	opts      DecodeOptions
	lastOrder int
	typesSeen bool
}

func (d *decoder) decode(r *binary.Reader) error {
	magic, err := r.ReadExact(len(MagicBytes))
	if err != nil {
		return inSection("header", err)
	}
	if !bytes.Equal(magic, MagicBytes[:]) {
		return werrors.New(werrors.PhaseDecode, werrors.KindBadMagic).
			Section("header").
			At(0).
			Value(magic).
			Detail("got % x, want % x", magic, MagicBytes[:]).
			Build()
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return inSection("header", err)
	}
	if d.opts.StrictVersion && version != Version {
		return werrors.New(werrors.PhaseDecode, werrors.KindUnsupported).
			Section("header").
			At(4).
			Value(version).
			Detail("version %d, want %d", version, Version).
			Build()
	}
	d.m.Version = version

	for r.Remaining() > 0 {
		start := r.Position()
		idByte, err := r.ReadByte()
		if err != nil {
			return inSection("section header", err)
		}
		id := SectionID(idByte)
		d.m.Sections = append(d.m.Sections, id)

		size, err := r.ReadU32()
		if err != nil {
			return inSection(id.String()+" section", err)
		}

		d.log.Debug("section found",
			zap.Stringer("section", id),
			zap.Uint8("id", idByte),
			zap.Int("offset", start),
			zap.Uint32("size", size))

		if order := sectionOrder(id); order != 0 {
			if order <= d.lastOrder {
				return werrors.New(werrors.PhaseValidate, werrors.KindMalformedModule).
					Section(id.String()+" section").
					At(start).
					Detail("section %s appears out of order", id).
					Build()
			}
			d.lastOrder = order
		}

		if !id.Handled() {
			if d.opts.HaltOnUnknownSection {
				d.log.Warn("no decoder for section, halting",
					zap.Stringer("section", id),
					zap.Int("offset", start))
				d.m.Halted = true
				d.m.HaltCause = werrors.New(werrors.PhaseDecode, werrors.KindUnrecognizedSection).
					Section(id.String()+" section").
					At(start).
					Value(idByte).
					Detail("no decoder for section id %d", idByte).
					Build()
				break
			}
			if err := r.Skip(int(size)); err != nil {
				return inSection(id.String()+" section", err)
			}
			d.log.Debug("section skipped", zap.Stringer("section", id), zap.Uint32("size", size))
			continue
		}

		sr, err := r.Sub(int(size))
		if err != nil {
			return inSection(id.String()+" section", err)
		}
		if err := d.decodeSection(id, sr); err != nil {
			return inSection(id.String()+" section", err)
		}
	}

	if r.Remaining() > 0 {
		d.m.Trailing = r.ReadToEnd()
		d.log.Debug("unparsed trailing data",
			zap.Int("bytes", len(d.m.Trailing)),
			zap.String("hex", hex.EncodeToString(d.m.Trailing)))
	}

	if !d.m.Halted {
		if err := d.m.validateCodeCount(); err != nil {
			return err
		}
	}
	if d.opts.Validate {
		return d.m.Validate()
	}
	return nil
}

func (d *decoder) decodeSection(id SectionID, r *binary.Reader) error {
	switch id {
	case SectionCustom:
		cs, err := decodeCustomSection(r)
		if err != nil {
			return err
		}
		d.m.CustomSections = append(d.m.CustomSections, cs)

	case SectionType:
		types, complete, err := decodeTypeSection(r)
		if err != nil {
			return err
		}
		d.m.Types = types
		d.typesSeen = true
		if !complete {
			dropped := r.ReadToEnd()
			d.log.Warn("type section halted at non-function type",
				zap.Int("parsed", len(types)),
				zap.Int("discarded_bytes", len(dropped)))
		}

	case SectionFunction:
		funcs, err := decodeFunctionSection(r, len(d.m.Types))
		if err != nil {
			return err
		}
		d.m.Funcs = funcs

	case SectionExport:
		exports, err := decodeExportSection(r)
		if err != nil {
			return err
		}
		d.m.Exports = exports

	case SectionCode:
		code, err := decodeCodeSection(r)
		if err != nil {
			return err
		}
		d.m.Code = code

	default:
		return fmt.Errorf("no decoder for section %s", id)
	}

	if r.Remaining() != 0 {
		return werrors.New(werrors.PhaseDecode, werrors.KindSectionSize).
			At(r.Position()).
			Detail("%d of %d declared bytes left unconsumed", r.Remaining(), r.Len()).
			Build()
	}
	return nil
}

func decodeCustomSection(r *binary.Reader) (CustomSection, error) {
	name, err := r.ReadName()
	if err != nil {
		return CustomSection{}, err
	}
	return CustomSection{Name: name, Data: r.ReadToEnd()}, nil
}

// decodeTypeSection decodes function signatures. An entry that does not
// start with FuncTypeByte ends the section early; complete is false then and
// the entries parsed so far are returned without error.
func decodeTypeSection(r *binary.Reader) (types []FuncType, complete bool, err error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, false, err
	}
	types = make([]FuncType, 0, capacity(count, r))
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return nil, false, err
		}
		if form != FuncTypeByte {
			Logger().Debug("invalid function type tag",
				zap.Uint32("entry", i),
				zap.Uint8("tag", form))
			return types, false, nil
		}
		params, err := readValTypes(r)
		if err != nil {
			return nil, false, err
		}
		results, err := readValTypes(r)
		if err != nil {
			return nil, false, err
		}
		types = append(types, FuncType{Params: params, Results: results})
	}
	return types, true, nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]ValType, 0, capacity(count, r))
	for i := uint32(0); i < count; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out = append(out, ValType(b))
	}
	return out, nil
}

// decodeFunctionSection decodes type indices, rejecting any index that does
// not name one of the numTypes decoded signatures.
func decodeFunctionSection(r *binary.Reader, numTypes int) ([]uint32, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	funcs := make([]uint32, 0, capacity(count, r))
	for i := uint32(0); i < count; i++ {
		pos := r.Position()
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if int64(idx) >= int64(numTypes) {
			return nil, werrors.New(werrors.PhaseValidate, werrors.KindInvalidTypeIndex).
				At(pos).
				Value(idx).
				Detail("function %d references type %d, %d types defined", i, idx, numTypes).
				Build()
		}
		funcs = append(funcs, idx)
	}
	return funcs, nil
}

func decodeExportSection(r *binary.Reader) ([]Export, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	exports := make([]Export, 0, capacity(count, r))
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if !ExportKind(kind).Known() {
			Logger().Debug("unknown export kind", zap.String("name", name), zap.Uint8("kind", kind))
		}
		exports = append(exports, Export{Name: name, Kind: ExportKind(kind), Index: idx})
	}
	return exports, nil
}

// decodeCodeSection copies each function body verbatim. Locals and
// instructions are left to the interpreter.
func decodeCodeSection(r *binary.Reader) ([][]byte, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	code := make([][]byte, 0, capacity(count, r))
	for i := uint32(0); i < count; i++ {
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		body, err := r.ReadExact(int(size))
		if err != nil {
			return nil, err
		}
		code = append(code, body)
	}
	return code, nil
}

// capacity bounds a declared element count by the bytes left, since every
// element takes at least one byte.
func capacity(count uint32, r *binary.Reader) int {
	if int64(count) > int64(r.Remaining()) {
		return r.Remaining()
	}
	return int(count)
}

// inSection attaches a section name to a structured error that lacks one.
func inSection(section string, err error) error {
	var we *werrors.Error
	if errors.As(err, &we) {
		if we.Section == "" {
			we.Section = section
		}
		return err
	}
	return fmt.Errorf("%s: %w", section, err)
}
