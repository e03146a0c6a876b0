package graph

import "fmt"

// NodeKind is the type half of a node identity. Values are part of the binary
// format and must not be renumbered.
type NodeKind uint8

const (
	KindUnknown          NodeKind = 0
	KindUnit             NodeKind = 1
	KindModule           NodeKind = 2
	KindUse              NodeKind = 3
	KindFunction         NodeKind = 4
	KindType             NodeKind = 5
	KindFunctionArgument NodeKind = 6
	KindStatement        NodeKind = 7
	KindID               NodeKind = 8
	KindFfi              NodeKind = 9
	KindNumber           NodeKind = 12
	KindBoolean          NodeKind = 13
	KindLibrary          NodeKind = 14
	KindImportLibrary    NodeKind = 15
	KindInt8             NodeKind = 17
	KindInt16            NodeKind = 18
	KindInt32            NodeKind = 19
	KindInt64            NodeKind = 20
	KindUint8            NodeKind = 21
	KindUint16           NodeKind = 22
	KindUint32           NodeKind = 23
	KindUint64           NodeKind = 24
	KindFloat32          NodeKind = 25
	KindFloat64          NodeKind = 26
	KindString           NodeKind = 27
	KindOpIf             NodeKind = 246
	KindOpLabel          NodeKind = 247
	KindOpCmp            NodeKind = 249
	KindOpCall           NodeKind = 255
)

var nodeKindNames = map[NodeKind]string{
	KindUnknown:          "UNKNOWN",
	KindUnit:             "UNIT",
	KindModule:           "MODULE",
	KindUse:              "USE",
	KindFunction:         "FUNCTION",
	KindType:             "TYPE",
	KindFunctionArgument: "FUNCTIONARGUMENT",
	KindStatement:        "STATEMENT",
	KindID:               "ID",
	KindFfi:              "FFI",
	KindNumber:           "NUMBER",
	KindBoolean:          "BOOLEAN",
	KindLibrary:          "LIBRARY",
	KindImportLibrary:    "IMPORTLIBRARY",
	KindInt8:             "INTEGER8",
	KindInt16:            "INTEGER16",
	KindInt32:            "INTEGER32",
	KindInt64:            "INTEGER64",
	KindUint8:            "UNSIGNEDINTEGER8",
	KindUint16:           "UNSIGNEDINTEGER16",
	KindUint32:           "UNSIGNEDINTEGER32",
	KindUint64:           "UNSIGNEDINTEGER64",
	KindFloat32:          "FLOAT32",
	KindFloat64:          "FLOAT64",
	KindString:           "STRING",
	KindOpIf:             "OPIF",
	KindOpLabel:          "OPLABEL",
	KindOpCmp:            "OPCMP",
	KindOpCall:           "OPCALL",
}

// Valid reports whether k is one of the declared kinds.
func (k NodeKind) Valid() bool {
	_, ok := nodeKindNames[k]
	return ok
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NODEKIND(%d)", uint8(k))
}

// EdgeKind says how the source node relates to the sink.
type EdgeKind uint8

const (
	EdgeUnknown EdgeKind = iota
	// EdgeParentChild points from a child node to its owner.
	EdgeParentChild
	// EdgeStringRef points from a node to a Strings entry; the sink id is the
	// string index and the sink kind is KindID.
	EdgeStringRef
	// EdgeTextViewRef points from a node to a TextViews entry. Reserved.
	EdgeTextViewRef
	// EdgeConstantRef is reserved.
	EdgeConstantRef
)

func (k EdgeKind) Valid() bool {
	return k <= EdgeConstantRef
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeUnknown:
		return "UNKNOWN"
	case EdgeParentChild:
		return "PARENTCHILD"
	case EdgeStringRef:
		return "STRING"
	case EdgeTextViewRef:
		return "TEXTVIEW"
	case EdgeConstantRef:
		return "CONSTANT"
	}
	return fmt.Sprintf("EDGEKIND(%d)", uint8(k))
}
