package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Трансляция IR-текста
	SynInfo                Code = 2000
	SynUnexpectedLine      Code = 2001 // line outside of any section or unknown for the section
	SynUnexpectedStatement Code = 2002 // unknown statement prefix inside [fun.X]
	SynMalformedSignature  Code = 2003 // ffi/decl without "(...)"
	SynMalformedLibrary    Code = 2004 // [lib] header without quoted name
	SynMalformedImport     Code = 2005 // key="symbol" line without quotes
	SynMissingOperand      Code = 2006 // cmp/if/const with too few operands
	SynMissingAssignment   Code = 2007 // ffi/lib line without '='
	SynDroppedParameter    Code = 2008 // parameter entry without ':'
	SynInvalidEncoding     Code = 2009 // line is not valid UTF-8

	// Ввод-вывод
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Компоновка модулей
	LnkDuplicateFfi      Code = 5001
	LnkDuplicateFunction Code = 5002
	LnkUseCycle          Code = 5003

	// Исполнение
	VMInfo             Code = 6000
	VMFunctionNotFound Code = 6001
	VMStackUnderflow   Code = 6002
	VMLabelNotFound    Code = 6003
	VMSymbolNotFound   Code = 6004
	VMLibraryNotLoaded Code = 6005
	VMForeignCall      Code = 6006
	VMMissingMain      Code = 6007
	VMStepBudget       Code = 6008
	VMCallDepth        Code = 6010
)

var (
	codeDescription = map[Code]string{
		UnknownCode:            "Unknown error",
		SynInfo:                "Translation information",
		SynUnexpectedLine:      "Unexpected line",
		SynUnexpectedStatement: "Unexpected instruction",
		SynMalformedSignature:  "Malformed declaration",
		SynMalformedLibrary:    "Malformed library header",
		SynMalformedImport:     "Malformed library import",
		SynMissingOperand:      "Missing operand",
		SynMissingAssignment:   "Missing '='",
		SynDroppedParameter:    "Parameter without type",
		SynInvalidEncoding:     "Invalid UTF-8",
		IOLoadFileError:        "I/O load file error",
		IOCacheError:           "Translation cache error",
		LnkDuplicateFfi:        "Duplicate ffi declaration",
		LnkDuplicateFunction:   "Duplicate function declaration",
		LnkUseCycle:            "Use cycle between modules",
		VMInfo:                 "VM information",
		VMFunctionNotFound:     "Function not found",
		VMStackUnderflow:       "Stack underflow",
		VMLabelNotFound:        "Label not found",
		VMSymbolNotFound:       "Symbol not found",
		VMLibraryNotLoaded:     "Library not loaded",
		VMForeignCall:          "Foreign call failed",
		VMMissingMain:          "No main function",
		VMStepBudget:           "Step budget exhausted",
		VMCallDepth:            "Call depth exceeded",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("VM%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
