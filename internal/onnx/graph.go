package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DefaultDomain is the canonical name of the standard operator domain.
const DefaultDomain = "ai.onnx"

// IsDefaultDomain reports whether domain names the standard operator set.
func IsDefaultDomain(domain string) bool {
	return domain == "" || domain == DefaultDomain
}

// DefaultOpsetVersion returns the opset version the model imports for the
// default domain.
func DefaultOpsetVersion(model *ModelProto) (int64, bool) {
	for _, opset := range model.GetOpsetImport() {
		if IsDefaultDomain(opset.GetDomain()) {
			return opset.GetVersion(), true
		}
	}
	return 0, false
}

// SetDefaultOpsetVersion rewrites (or adds) the default-domain opset import.
func SetDefaultOpsetVersion(model *ModelProto, version int64) {
	for _, opset := range model.GetOpsetImport() {
		if IsDefaultDomain(opset.GetDomain()) {
			opset.Version = version
			return
		}
	}
	model.OpsetImport = append(model.OpsetImport, &OperatorSetIdProto{Version: version})
}

// WalkGraphs calls fn for g and every subgraph nested in node attributes
// (If/Loop/Scan bodies), depth first.
func WalkGraphs(g *GraphProto, fn func(*GraphProto) error) error {
	if g == nil {
		return nil
	}
	if err := fn(g); err != nil {
		return err
	}
	for _, node := range g.GetNode() {
		for _, attr := range node.GetAttribute() {
			if err := WalkGraphs(attr.GetG(), fn); err != nil {
				return err
			}
			for _, sub := range attr.GetGraphs() {
				if err := WalkGraphs(sub, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Attribute returns the attribute called name, or nil.
func Attribute(node *NodeProto, name string) *AttributeProto {
	for _, attr := range node.GetAttribute() {
		if attr.GetName() == name {
			return attr
		}
	}
	return nil
}

// RemoveAttribute drops the attribute called name and returns it.
func RemoveAttribute(node *NodeProto, name string) *AttributeProto {
	for i, attr := range node.GetAttribute() {
		if attr.GetName() == name {
			node.Attribute = append(node.Attribute[:i], node.Attribute[i+1:]...)
			return attr
		}
	}
	return nil
}

// SetIntAttribute replaces or adds an INT attribute.
func SetIntAttribute(node *NodeProto, name string, v int64) {
	RemoveAttribute(node, name)
	node.Attribute = append(node.Attribute, &AttributeProto{Name: name, Type: AttributeProto_INT, I: v})
}

// SetIntsAttribute replaces or adds an INTS attribute.
func SetIntsAttribute(node *NodeProto, name string, v []int64) {
	RemoveAttribute(node, name)
	node.Attribute = append(node.Attribute, &AttributeProto{Name: name, Type: AttributeProto_INTS, Ints: v})
}

// SetStringAttribute replaces or adds a STRING attribute.
func SetStringAttribute(node *NodeProto, name, v string) {
	RemoveAttribute(node, name)
	node.Attribute = append(node.Attribute, &AttributeProto{Name: name, Type: AttributeProto_STRING, S: []byte(v)})
}

// Initializer returns the graph initializer called name, or nil.
func Initializer(g *GraphProto, name string) *TensorProto {
	for _, t := range g.GetInitializer() {
		if t.GetName() == name {
			return t
		}
	}
	return nil
}

// NewInt64Initializer builds a 1-D INT64 tensor holding vals.
func NewInt64Initializer(name string, vals []int64) *TensorProto {
	data := make([]int64, len(vals))
	copy(data, vals)
	return &TensorProto{
		Name:      name,
		DataType:  DataTypeInt64,
		Dims:      []int64{int64(len(vals))},
		Int64Data: data,
	}
}

// Int64Data decodes an INT64 or INT32 tensor, whichever field carries it.
func Int64Data(p *TensorProto) ([]int64, error) {
	dt := p.GetDataType()
	if dt != DataTypeInt64 && dt != DataTypeInt32 {
		return nil, fmt.Errorf("tensor %q is not of type INT64 or INT32, but %s", p.GetName(), DataTypeName(dt))
	}
	if p.GetInt64Data() != nil {
		return p.GetInt64Data(), nil
	}
	if p.GetInt32Data() != nil {
		data := make([]int64, len(p.GetInt32Data()))
		for i, v := range p.GetInt32Data() {
			data[i] = int64(v)
		}
		return data, nil
	}
	raw := p.GetRawData()
	if len(raw) == 0 {
		return []int64{}, nil
	}
	if dt == DataTypeInt64 {
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("raw_data length %d is not a multiple of 8 for INT64", len(raw))
		}
		data := make([]int64, len(raw)/8)
		for i := range data {
			data[i] = int64(binary.LittleEndian.Uint64(raw[i*8 : (i+1)*8]))
		}
		return data, nil
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("raw_data length %d is not a multiple of 4 for INT32", len(raw))
	}
	data := make([]int64, len(raw)/4)
	for i := range data {
		data[i] = int64(int32(binary.LittleEndian.Uint32(raw[i*4 : (i+1)*4])))
	}
	return data, nil
}

// ValueTypes collects the element type of every named value the graph
// declares: inputs, outputs, value_info and initializers.
func ValueTypes(g *GraphProto) map[string]int32 {
	types := make(map[string]int32)
	add := func(infos []*ValueInfoProto) {
		for _, info := range infos {
			if tt := info.GetType().GetTensorType(); tt != nil {
				types[info.GetName()] = tt.GetElemType()
			}
		}
	}
	add(g.GetInput())
	add(g.GetOutput())
	add(g.GetValueInfo())
	for _, t := range g.GetInitializer() {
		types[t.GetName()] = t.GetDataType()
	}
	return types
}

// ValueShapes collects the declared shape of every named value. Unknown
// dimensions are -1.
func ValueShapes(g *GraphProto) map[string][]int64 {
	shapes := make(map[string][]int64)
	add := func(infos []*ValueInfoProto) {
		for _, info := range infos {
			if tt := info.GetType().GetTensorType(); tt != nil && tt.GetShape() != nil {
				shapes[info.GetName()] = Shape(info)
			}
		}
	}
	add(g.GetInput())
	add(g.GetOutput())
	add(g.GetValueInfo())
	for _, t := range g.GetInitializer() {
		shapes[t.GetName()] = append([]int64(nil), t.GetDims()...)
	}
	return shapes
}

// Shape returns the declared dimensions of a value; symbolic or missing
// dimensions are reported as -1.
func Shape(info *ValueInfoProto) []int64 {
	dims := info.GetType().GetTensorType().GetShape().GetDim()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		if v, ok := d.GetValue().(*TensorShapeProto_Dimension_DimValue); ok {
			shape[i] = v.DimValue
		} else {
			shape[i] = -1
		}
	}
	return shape
}

// NewFloatInitializer builds a FLOAT scalar tensor.
func NewFloatInitializer(name string, v float32) *TensorProto {
	return &TensorProto{
		Name:      name,
		DataType:  DataTypeFloat,
		FloatData: []float32{v},
	}
}

// FloatData decodes a FLOAT tensor from float_data or raw_data.
func FloatData(p *TensorProto) ([]float32, error) {
	if p.GetDataType() != DataTypeFloat {
		return nil, fmt.Errorf("tensor %q is not of type FLOAT, but %s", p.GetName(), DataTypeName(p.GetDataType()))
	}
	if p.GetFloatData() != nil {
		return p.GetFloatData(), nil
	}
	raw := p.GetRawData()
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("raw_data length %d is not a multiple of 4 for FLOAT", len(raw))
	}
	data := make([]float32, len(raw)/4)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4 : (i+1)*4]))
	}
	return data, nil
}
