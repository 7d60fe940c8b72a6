package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout holds the byte size and alignment of a WGSL type in the uniform address space.
type typeLayout struct {
	size  uint64
	align uint64
}

// vertexFormat pairs a wgpu vertex format with its byte size.
type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// structField is a single member of a parsed WGSL struct.
type structField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// structDecl is a parsed WGSL struct declaration.
type structDecl struct {
	name   string
	fields []structField
}

// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var primitiveLayouts = map[string]typeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

var vertexFormats = map[string]vertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

var (
	structRegex      = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex    = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex     = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldRegex       = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)
	vertexEntryRe    = regexp.MustCompile(`(?s)@vertex\s+fn\s+(\w+)`)
	fragmentEntryRe  = regexp.MustCompile(`(?s)@fragment\s+fn\s+(\w+)`)
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// stripComments removes // line comments and /* */ block comments (nested per WGSL) from source.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case source[i] == '/' && source[i+1] == '/' && depth == 0:
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// parseStructs finds every struct declaration in comment-free source.
func parseStructs(source string) []structDecl {
	matches := structRegex.FindAllStringSubmatch(source, -1)
	structs := make([]structDecl, 0, len(matches))
	for _, m := range matches {
		structs = append(structs, structDecl{name: m[1], fields: parseFields(m[2])})
	}
	return structs
}

// parseFields splits a struct body at top-level commas and parses each member.
func parseFields(body string) []structField {
	var fields []structField
	for _, member := range splitTopLevel(body) {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(member)
		if fm == nil {
			continue
		}
		f := structField{
			name:      fm[1],
			typeName:  strings.TrimSuffix(strings.TrimSpace(fm[2]), ";"),
			location:  -1,
			isBuiltin: builtinRegex.MatchString(member),
		}
		if lm := locationRegex.FindStringSubmatch(member); lm != nil {
			f.location, _ = strconv.Atoi(lm[1])
		}
		fields = append(fields, f)
	}
	return fields
}

// splitTopLevel splits s at commas and semicolons that are not nested inside angle brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// entryPoint returns the name of the first function carrying the given stage attribute.
func entryPoint(source string, re *regexp.Regexp) string {
	if m := re.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return ""
}

// functionBody returns the brace-delimited body of the named function, or "" if absent.
func functionBody(source, name string) string {
	start := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\s*\(`).FindStringIndex(source)
	if start == nil {
		return ""
	}
	open := strings.IndexByte(source[start[1]:], '{')
	if open < 0 {
		return ""
	}
	open += start[1]
	depth := 0
	for i := open; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[open : i+1]
			}
		}
	}
	return source[open:]
}

// vertexLayouts builds one vertex buffer layout per pure vertex input struct: every member has a
// @location and none is a @builtin. Attributes are packed in declaration order.
func vertexLayouts(structs []structDecl) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, s := range structs {
		if len(s.fields) == 0 {
			continue
		}
		attrs := make([]wgpu.VertexAttribute, 0, len(s.fields))
		var offset uint64
		ok := true
		for _, f := range s.fields {
			vf, known := vertexFormats[f.typeName]
			if f.isBuiltin || f.location < 0 || !known {
				ok = false
				break
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(f.location),
			})
			offset += vf.size
		}
		if !ok {
			continue
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: offset,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return layouts
}

// structLayouts computes uniform-space sizes for every struct whose members resolve.
// Structs are resolved in declaration order, so a struct may only embed earlier ones.
func structLayouts(structs []structDecl) map[string]typeLayout {
	known := make(map[string]typeLayout)
	for _, s := range structs {
		var offset, align uint64 = 0, 1
		ok := true
		for _, f := range s.fields {
			l, found := resolveLayout(f.typeName, known)
			if !found {
				ok = false
				break
			}
			offset = roundUp(l.align, offset) + l.size
			align = max(align, l.align)
		}
		if ok {
			known[s.name] = typeLayout{size: roundUp(align, offset), align: align}
		}
	}
	return known
}

func resolveLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	l, ok := known[typeName]
	return l, ok
}

func roundUp(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// bindGroupLayouts collects the @group/@binding declarations of source into one layout
// descriptor per group. Each entry is visible to the stages whose entry point body names the variable.
func bindGroupLayouts(source string, structs []structDecl, stages map[wgpu.ShaderStage]string) map[int]wgpu.BindGroupLayoutDescriptor {
	sizes := structLayouts(structs)
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)

	for _, m := range bindingDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		name := m[4]
		typeName := strings.TrimSpace(m[5])

		var visibility wgpu.ShaderStage
		for stage, body := range stages {
			if regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`).MatchString(body) {
				visibility |= stage
			}
		}
		if visibility == wgpu.ShaderStageNone {
			visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
		}

		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility}
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		case strings.HasPrefix(addressSpace, "storage"):
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		default:
			// Textures and samplers are not used by any starter shader.
			continue
		}
		if l, ok := resolveLayout(typeName, sizes); ok {
			entry.Buffer.MinBindingSize = l.size
		}
		groups[group] = append(groups[group], entry)
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}
