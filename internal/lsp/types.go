// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

// Position is a zero-based line/character pair. Character is a UTF-16 code
// unit offset per the LSP base protocol; this package never computes one
// itself, only forwards the value a language server reported.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end Position pair, half-open: Start is inclusive, End is
// exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a Range within a document URI.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// LocationLink is the richer alternative to Location some servers return
// for definition/declaration/typeDefinition/implementation requests.
type LocationLink struct {
	OriginSelectionRange *Range `json:"originSelectionRange,omitempty"`
	TargetURI            string `json:"targetUri"`
	TargetRange          Range  `json:"targetRange"`
	TargetSelectionRange Range  `json:"targetSelectionRange"`
}

// TextDocumentIdentifier names a document by URI only.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// VersionedTextDocumentIdentifier adds the document's version, required on
// didChange notifications.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// OptionalVersionedTextDocumentIdentifier is used inside TextDocumentEdit,
// where version may legitimately be null.
type OptionalVersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version *int   `json:"version"`
}

// TextDocumentItem is the full payload of a didOpen notification.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams is the common shape shared by hover,
// definition, references, and friends.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// TextEdit replaces the text within Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// AnnotatedTextEdit is a TextEdit carrying a change-annotation identifier.
type AnnotatedTextEdit struct {
	TextEdit
	AnnotationID string `json:"annotationId"`
}

// TextDocumentEdit groups edits against one versioned document.
type TextDocumentEdit struct {
	TextDocument OptionalVersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []TextEdit                              `json:"edits"`
}

// CreateFile, RenameFile, and DeleteFile are the resource-operation
// variants a WorkspaceEdit's DocumentChanges may carry alongside
// TextDocumentEdit, per the workspaceEdit.resourceOperations capability.
type CreateFile struct {
	Kind    string `json:"kind"` // "create"
	URI     string `json:"uri"`
	Options *struct {
		Overwrite      bool `json:"overwrite,omitempty"`
		IgnoreIfExists bool `json:"ignoreIfExists,omitempty"`
	} `json:"options,omitempty"`
}

type RenameFile struct {
	Kind    string `json:"kind"` // "rename"
	OldURI  string `json:"oldUri"`
	NewURI  string `json:"newUri"`
	Options *struct {
		Overwrite      bool `json:"overwrite,omitempty"`
		IgnoreIfExists bool `json:"ignoreIfExists,omitempty"`
	} `json:"options,omitempty"`
}

type DeleteFile struct {
	Kind    string `json:"kind"` // "delete"
	URI     string `json:"uri"`
	Options *struct {
		Recursive         bool `json:"recursive,omitempty"`
		IgnoreIfNotExists bool `json:"ignoreIfNotExists,omitempty"`
	} `json:"options,omitempty"`
}

// WorkspaceEdit is the result of rename and code-action operations. Changes
// is the legacy URI->edits map; DocumentChanges, when present, takes
// precedence and may mix TextDocumentEdit with file-operation variants
// (left as json.RawMessage-compatible any, decoded by the caller).
type WorkspaceEdit struct {
	Changes        map[string][]TextEdit `json:"changes,omitempty"`
	DocumentChanges []any                `json:"documentChanges,omitempty"`
}

// Command is a reference to a command identifier a client can invoke.
type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

// SymbolKind is the fixed LSP enumeration of symbol categories, values
// 1..26. Recovered in full from the original_source types.py, which the
// teacher's in-pack types.go (filtered out of the retrieval) also modeled.
type SymbolKind int

const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindPackage       SymbolKind = 4
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindEnum          SymbolKind = 10
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindString        SymbolKind = 15
	SymbolKindNumber        SymbolKind = 16
	SymbolKindBoolean       SymbolKind = 17
	SymbolKindArray         SymbolKind = 18
	SymbolKindObject        SymbolKind = 19
	SymbolKindKey           SymbolKind = 20
	SymbolKindNull          SymbolKind = 21
	SymbolKindEnumMember    SymbolKind = 22
	SymbolKindStruct        SymbolKind = 23
	SymbolKindEvent         SymbolKind = 24
	SymbolKindOperator      SymbolKind = 25
	SymbolKindTypeParameter SymbolKind = 26
)

// VariableLikeSymbolKinds are the variable-like symbol kinds whose
// single-line declaration range may cover further lines, since gopls et al.
// report only the declaration keyword's line for var/const declarations
// that span multiple lines. show.go does not consult this map: its
// direct-range mode keys on the kind names "Constant" and "Variable" from
// its own table.
var VariableLikeSymbolKinds = map[SymbolKind]bool{
	SymbolKindVariable: true,
	SymbolKindConstant: true,
	SymbolKindField:    true,
}

// SymbolInformation is the flat (non-hierarchical) symbol shape returned by
// workspace/symbol and, on servers without hierarchicalDocumentSymbolSupport,
// textDocument/documentSymbol.
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}

// DocumentSymbol is the hierarchical shape returned by
// textDocument/documentSymbol when the server supports it.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// ReferenceContext controls whether textDocument/references includes the
// declaration site itself.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is the params shape for textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// RenameParams is the params shape for textDocument/rename.
type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

// PrepareRenameParams is the params shape for textDocument/prepareRename.
type PrepareRenameParams struct {
	TextDocumentPositionParams
}

// MarkupContent is a hover/signature-help content blob.
type MarkupContent struct {
	Kind  string `json:"kind"` // "plaintext" | "markdown"
	Value string `json:"value"`
}

// HoverResult is the result of textDocument/hover.
type HoverResult struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// DidOpenTextDocumentParams is the params shape for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent describes one incremental or full-text
// change; this daemon always sends full-text changes (Range/RangeLength
// omitted), matching spec.md's "full-text replace on every didChange".
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *int   `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// DidChangeTextDocumentParams is the params shape for
// textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is the params shape for
// textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// Diagnostic reports a problem a server attaches to a range, used to scope
// a CodeActionParams request to the fixes relevant to it. Recovered from
// original_source/lspcmd/lsp/types.py's Diagnostic.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Message  string `json:"message"`
	Severity *int   `json:"severity,omitempty"`
	Code     any    `json:"code,omitempty"`
	Source   string `json:"source,omitempty"`
}

// CodeActionContext carries the diagnostics and (optionally) the kinds a
// textDocument/codeAction request is scoped to.
type CodeActionContext struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Only        []string     `json:"only,omitempty"`
}

// CodeActionParams is the params shape for textDocument/codeAction.
type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

// CodeAction is one quick-fix or refactor a server offers for a range,
// matching original_source/lspcmd/lsp/types.py's CodeAction.
type CodeAction struct {
	Title       string         `json:"title"`
	Kind        string         `json:"kind,omitempty"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	IsPreferred bool           `json:"isPreferred,omitempty"`
	Edit        *WorkspaceEdit `json:"edit,omitempty"`
	Command     *Command       `json:"command,omitempty"`
	Data        any            `json:"data,omitempty"`
}

// SignatureInformation documents one call signature within a
// textDocument/signatureHelp response.
type SignatureInformation struct {
	Label         string                 `json:"label"`
	Documentation *MarkupContent         `json:"documentation,omitempty"`
	Parameters    []ParameterInformation `json:"parameters,omitempty"`
}

// ParameterInformation documents one parameter of a SignatureInformation.
type ParameterInformation struct {
	Label         string         `json:"label"`
	Documentation *MarkupContent `json:"documentation,omitempty"`
}

// SignatureHelp is the result of textDocument/signatureHelp.
type SignatureHelp struct {
	Signatures      []SignatureInformation `json:"signatures"`
	ActiveSignature *int                   `json:"activeSignature,omitempty"`
	ActiveParameter *int                   `json:"activeParameter,omitempty"`
}

// SignatureHelpParams is the params shape for textDocument/signatureHelp.
type SignatureHelpParams struct {
	TextDocumentPositionParams
}

// CallHierarchyItem identifies one callable entity, returned by
// textDocument/prepareCallHierarchy and fed back into
// callHierarchy/incomingCalls and callHierarchy/outgoingCalls. Recovered
// from original_source/lspcmd/lsp/types.py's CallHierarchyItem.
type CallHierarchyItem struct {
	Name           string     `json:"name"`
	Kind           SymbolKind `json:"kind"`
	URI            string     `json:"uri"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selectionRange"`
	Detail         string     `json:"detail,omitempty"`
	Data           any        `json:"data,omitempty"`
}

// CallHierarchyPrepareParams is the params shape for
// textDocument/prepareCallHierarchy.
type CallHierarchyPrepareParams struct {
	TextDocumentPositionParams
}

// CallHierarchyIncomingCall is one entry of callHierarchy/incomingCalls'
// result: a caller and the ranges within it that call the target item.
type CallHierarchyIncomingCall struct {
	From       CallHierarchyItem `json:"from"`
	FromRanges []Range           `json:"fromRanges"`
}

// CallHierarchyIncomingCallsParams is the params shape for
// callHierarchy/incomingCalls.
type CallHierarchyIncomingCallsParams struct {
	Item CallHierarchyItem `json:"item"`
}

// CallHierarchyOutgoingCall is one entry of callHierarchy/outgoingCalls'
// result: a callee and the ranges within the source item that call it.
type CallHierarchyOutgoingCall struct {
	To         CallHierarchyItem `json:"to"`
	FromRanges []Range           `json:"fromRanges"`
}

// CallHierarchyOutgoingCallsParams is the params shape for
// callHierarchy/outgoingCalls.
type CallHierarchyOutgoingCallsParams struct {
	Item CallHierarchyItem `json:"item"`
}

// TypeHierarchyItem identifies one type, returned by
// textDocument/prepareTypeHierarchy and fed back into
// typeHierarchy/supertypes and typeHierarchy/subtypes. Recovered from
// original_source/lspcmd/lsp/types.py's TypeHierarchyItem.
type TypeHierarchyItem struct {
	Name           string     `json:"name"`
	Kind           SymbolKind `json:"kind"`
	URI            string     `json:"uri"`
	Range          Range      `json:"range"`
	SelectionRange Range      `json:"selectionRange"`
	Detail         string     `json:"detail,omitempty"`
	Tags           []int      `json:"tags,omitempty"`
	Data           any        `json:"data,omitempty"`
}

// TypeHierarchyPrepareParams is the params shape for
// textDocument/prepareTypeHierarchy.
type TypeHierarchyPrepareParams struct {
	TextDocumentPositionParams
}

// TypeHierarchySupertypesParams is the params shape for
// typeHierarchy/supertypes.
type TypeHierarchySupertypesParams struct {
	Item TypeHierarchyItem `json:"item"`
}

// TypeHierarchySubtypesParams is the params shape for
// typeHierarchy/subtypes.
type TypeHierarchySubtypesParams struct {
	Item TypeHierarchyItem `json:"item"`
}

// InlayHint is one inline annotation returned by textDocument/inlayHint,
// e.g. an inferred parameter name or type. Not modeled in
// original_source (the Python client never requested inlay hints); the
// shape below follows the LSP spec's commonly-populated fields and treats
// Label as always a plain string, omitting the rarer InlayHintLabelPart
// array variant no server in the default ConfigRegistry relies on.
type InlayHint struct {
	Position     Position `json:"position"`
	Label        string   `json:"label"`
	Kind         *int     `json:"kind,omitempty"`
	Tooltip      string   `json:"tooltip,omitempty"`
	PaddingLeft  bool     `json:"paddingLeft,omitempty"`
	PaddingRight bool     `json:"paddingRight,omitempty"`
}

// InlayHintParams is the params shape for textDocument/inlayHint.
type InlayHintParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
}

// DefinitionCapabilities, HoverCapabilities, and the remaining capability
// substructures below model only the fields this daemon sets; servers
// ignore fields they don't understand, per the LSP spec's extensibility
// rule.
type DefinitionCapabilities struct {
	LinkSupport bool `json:"linkSupport,omitempty"`
}

type HoverCapabilities struct {
	ContentFormat []string `json:"contentFormat,omitempty"`
}

type RenameCapabilities struct {
	PrepareSupport bool `json:"prepareSupport,omitempty"`
}

type ReferencesCapabilities struct{}

type SynchronizationCapabilities struct {
	DidSave bool `json:"didSave,omitempty"`
}

type DocumentSymbolCapabilities struct {
	HierarchicalDocumentSymbolSupport bool                 `json:"hierarchicalDocumentSymbolSupport,omitempty"`
	SymbolKind                        *SymbolKindCapability `json:"symbolKind,omitempty"`
}

type SymbolKindCapability struct {
	ValueSet []SymbolKind `json:"valueSet,omitempty"`
}

type PublishDiagnosticsCapabilities struct {
	RelatedInformation bool `json:"relatedInformation,omitempty"`
	VersionSupport     bool `json:"versionSupport,omitempty"`
	CodeDescription     bool `json:"codeDescriptionSupport,omitempty"`
}

type TextDocumentClientCapabilities struct {
	Synchronization    *SynchronizationCapabilities    `json:"synchronization,omitempty"`
	Definition         *DefinitionCapabilities         `json:"definition,omitempty"`
	References         *ReferencesCapabilities         `json:"references,omitempty"`
	Hover              *HoverCapabilities              `json:"hover,omitempty"`
	Rename             *RenameCapabilities             `json:"rename,omitempty"`
	DocumentSymbol     *DocumentSymbolCapabilities     `json:"documentSymbol,omitempty"`
	PublishDiagnostics *PublishDiagnosticsCapabilities `json:"publishDiagnostics,omitempty"`
	SignatureHelp      *SignatureHelpCapabilities       `json:"signatureHelp,omitempty"`
	CallHierarchy      *CallHierarchyCapabilities       `json:"callHierarchy,omitempty"`
	TypeHierarchy      *TypeHierarchyCapabilities       `json:"typeHierarchy,omitempty"`
	InlayHint          *InlayHintCapabilities           `json:"inlayHint,omitempty"`
}

// SignatureInformationCapability describes the documentation formats a
// client accepts within a SignatureInformation entry.
type SignatureInformationCapability struct {
	DocumentationFormat []string `json:"documentationFormat,omitempty"`
}

type SignatureHelpCapabilities struct {
	SignatureInformation *SignatureInformationCapability `json:"signatureInformation,omitempty"`
}

type CallHierarchyCapabilities struct{}

type TypeHierarchyCapabilities struct{}

type InlayHintCapabilities struct{}

type WorkspaceEditClientCapabilities struct {
	DocumentChanges      bool     `json:"documentChanges,omitempty"`
	ResourceOperations   []string `json:"resourceOperations,omitempty"`
}

type WorkspaceSymbolClientCapabilities struct {
	SymbolKind *SymbolKindCapability `json:"symbolKind,omitempty"`
}

type WorkspaceClientCapabilities struct {
	ApplyEdit      bool                               `json:"applyEdit,omitempty"`
	WorkspaceEdit  *WorkspaceEditClientCapabilities   `json:"workspaceEdit,omitempty"`
	Symbol         *WorkspaceSymbolClientCapabilities `json:"symbol,omitempty"`
	ExecuteCommand *struct{}                          `json:"executeCommand,omitempty"`
	WorkspaceFolders bool                             `json:"workspaceFolders,omitempty"`
}

type GeneralClientCapabilities struct {
	PositionEncodings []string `json:"positionEncodings,omitempty"`
}

type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	Workspace    WorkspaceClientCapabilities    `json:"workspace"`
	General      GeneralClientCapabilities      `json:"general,omitempty"`
}

type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// InitializeParams is the params shape for the initialize request.
type InitializeParams struct {
	ProcessID             *int               `json:"processId"`
	RootURI               string             `json:"rootUri"`
	RootPath              string             `json:"rootPath,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
}

// ServerCapabilities models only the fields this daemon inspects to decide
// whether a feature is supported; each is left as `any` because the LSP
// spec allows either a bool or an options object to signal support, and
// HasXProvider below treats both as "supported".
type ServerCapabilities struct {
	DefinitionProvider any `json:"definitionProvider,omitempty"`
	ReferencesProvider any `json:"referencesProvider,omitempty"`
	HoverProvider      any `json:"hoverProvider,omitempty"`
	RenameProvider     any `json:"renameProvider,omitempty"`
	DocumentSymbolProvider any `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider any `json:"workspaceSymbolProvider,omitempty"`
	CodeActionProvider any `json:"codeActionProvider,omitempty"`
	SignatureHelpProvider any `json:"signatureHelpProvider,omitempty"`
	CallHierarchyProvider any `json:"callHierarchyProvider,omitempty"`
	TypeHierarchyProvider any `json:"typeHierarchyProvider,omitempty"`
	InlayHintProvider     any `json:"inlayHintProvider,omitempty"`
}

func hasProvider(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func (c ServerCapabilities) HasDefinitionProvider() bool      { return hasProvider(c.DefinitionProvider) }
func (c ServerCapabilities) HasReferencesProvider() bool      { return hasProvider(c.ReferencesProvider) }
func (c ServerCapabilities) HasHoverProvider() bool           { return hasProvider(c.HoverProvider) }
func (c ServerCapabilities) HasRenameProvider() bool          { return hasProvider(c.RenameProvider) }
func (c ServerCapabilities) HasDocumentSymbolProvider() bool  { return hasProvider(c.DocumentSymbolProvider) }
func (c ServerCapabilities) HasWorkspaceSymbolProvider() bool { return hasProvider(c.WorkspaceSymbolProvider) }
func (c ServerCapabilities) HasCodeActionProvider() bool      { return hasProvider(c.CodeActionProvider) }
func (c ServerCapabilities) HasSignatureHelpProvider() bool   { return hasProvider(c.SignatureHelpProvider) }
func (c ServerCapabilities) HasCallHierarchyProvider() bool   { return hasProvider(c.CallHierarchyProvider) }
func (c ServerCapabilities) HasTypeHierarchyProvider() bool   { return hasProvider(c.TypeHierarchyProvider) }
func (c ServerCapabilities) HasInlayHintProvider() bool       { return hasProvider(c.InlayHintProvider) }

// InitializeResult is the result shape of the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *struct {
		Name    string `json:"name"`
		Version string `json:"version,omitempty"`
	} `json:"serverInfo,omitempty"`
}
