package tag

import "fmt"

// Code is a tag record's 10-bit type code.
type Code uint16

// Tag codes understood by the decoder.
const (
	CodeEnd                  Code = 0
	CodeShowFrame            Code = 1
	CodeDefineShape          Code = 2
	CodePlaceObject          Code = 4
	CodeRemoveObject         Code = 5
	CodeSetBackgroundColor   Code = 9
	CodeDoAction             Code = 12
	CodeDefineBitsLossless   Code = 20
	CodeDefineBitsJPEG2      Code = 21
	CodeDefineShape2         Code = 22
	CodeProtect              Code = 24
	CodePlaceObject2         Code = 26
	CodeRemoveObject2        Code = 28
	CodeDefineShape3         Code = 32
	CodeDefineBitsJPEG3      Code = 35
	CodeDefineBitsLossless2  Code = 36
	CodeDefineSprite         Code = 39
	CodeProductInfo          Code = 41
	CodeFrameLabel           Code = 43
	CodeExportAssets         Code = 56
	CodeDoInitAction         Code = 59
	CodeDebugID              Code = 63
	CodeEnableDebugger2      Code = 64
	CodeScriptLimits         Code = 65
	CodeSetTabIndex          Code = 66
	CodeFileAttributes       Code = 69
	CodePlaceObject3         Code = 70
	CodeDoABCDefine          Code = 72
	CodeSymbolClass          Code = 76
	CodeMetadata             Code = 77
	CodeDoABC                Code = 82
	CodeDefineShape4         Code = 83
	CodeDefineSceneAndFrames Code = 86
)

var codeNames = map[Code]string{
	CodeEnd:                  "End",
	CodeShowFrame:            "ShowFrame",
	CodeDefineShape:          "DefineShape",
	CodePlaceObject:          "PlaceObject",
	CodeRemoveObject:         "RemoveObject",
	CodeSetBackgroundColor:   "SetBackgroundColor",
	CodeDoAction:             "DoAction",
	CodeDefineBitsLossless:   "DefineBitsLossless",
	CodeDefineBitsJPEG2:      "DefineBitsJPEG2",
	CodeDefineShape2:         "DefineShape2",
	CodeProtect:              "Protect",
	CodePlaceObject2:         "PlaceObject2",
	CodeRemoveObject2:        "RemoveObject2",
	CodeDefineShape3:         "DefineShape3",
	CodeDefineBitsJPEG3:      "DefineBitsJPEG3",
	CodeDefineBitsLossless2:  "DefineBitsLossless2",
	CodeDefineSprite:         "DefineSprite",
	CodeProductInfo:          "ProductInfo",
	CodeFrameLabel:           "FrameLabel",
	CodeExportAssets:         "ExportAssets",
	CodeDoInitAction:         "DoInitAction",
	CodeDebugID:              "DebugID",
	CodeEnableDebugger2:      "EnableDebugger2",
	CodeScriptLimits:         "ScriptLimits",
	CodeSetTabIndex:          "SetTabIndex",
	CodeFileAttributes:       "FileAttributes",
	CodePlaceObject3:         "PlaceObject3",
	CodeDoABCDefine:          "DoABCDefine",
	CodeSymbolClass:          "SymbolClass",
	CodeMetadata:             "Metadata",
	CodeDoABC:                "DoABC",
	CodeDefineShape4:         "DefineShape4",
	CodeDefineSceneAndFrames: "DefineSceneAndFrameLabelData",
}

// String returns the tag name, or "Code(n)" for codes without one.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// isOpaque reports codes that are recognised but carry nothing visual:
// script bytecode and metadata. They are kept as Opaque tags.
func (c Code) isOpaque() bool {
	switch c {
	case CodeDoAction, CodeDoInitAction, CodeDoABC, CodeDoABCDefine,
		CodeProtect, CodeProductInfo, CodeExportAssets, CodeDebugID,
		CodeEnableDebugger2, CodeScriptLimits, CodeSetTabIndex,
		CodeSymbolClass, CodeMetadata, CodeDefineSceneAndFrames:
		return true
	}
	return false
}
