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

import (
	"path/filepath"
	"sync"
)

// languageIDs maps file extensions (including the leading dot) to the LSP
// languageId string sent on didOpen. Recovered in full from
// original_source/lspcmd/utils/text.py's LANGUAGE_IDS table: the daemon
// only ever spawns servers for extensions with a registered
// LanguageConfig, but every opened document — including ones read only for
// `show` support — should still carry a correct languageId, so the table
// is wider than the set of spawnable servers.
var languageIDs = map[string]string{
	".py": "python", ".pyi": "python",
	".js": "javascript", ".jsx": "javascriptreact",
	".ts": "typescript", ".tsx": "typescriptreact",
	".rs": "rust",
	".go": "go",
	".c": "c", ".h": "c",
	".cpp": "cpp", ".cc": "cpp", ".cxx": "cpp", ".hpp": "cpp", ".hxx": "cpp",
	".java": "java",
	".rb":   "ruby",
	".php":  "php",
	".cs":   "csharp",
	".fs":   "fsharp",
	".swift": "swift",
	".kt": "kotlin", ".kts": "kotlin",
	".scala": "scala",
	".lua":   "lua",
	".sh": "shellscript", ".bash": "shellscript", ".zsh": "shellscript",
	".json": "json",
	".yaml": "yaml", ".yml": "yaml",
	".toml": "toml",
	".xml":  "xml",
	".html": "html", ".htm": "html",
	".css":  "css",
	".scss": "scss",
	".less": "less",
	".md":   "markdown", ".markdown": "markdown",
	".sql": "sql",
	".r":   "r", ".R": "r",
	".el":  "emacs-lisp",
	".clj": "clojure", ".cljs": "clojurescript",
	".ex": "elixir", ".exs": "elixir",
	".erl": "erlang", ".hrl": "erlang",
	".hs":  "haskell",
	".ml":  "ocaml", ".mli": "ocaml",
	".vim": "vim",
	".zig": "zig",
	".nim": "nim",
	".d":   "d",
	".dart": "dart",
	".v":    "v",
	".vue":  "vue",
	".svelte": "svelte",
}

// LanguageID returns the LSP languageId for path's extension, or
// "plaintext" if the extension is unrecognized.
func LanguageID(path string) string {
	if id, ok := languageIDs[filepath.Ext(path)]; ok {
		return id
	}
	return "plaintext"
}

// LanguageConfig describes how to spawn and recognize a language server.
type LanguageConfig struct {
	Language              string
	Command               string
	Args                  []string
	Extensions            []string
	RootFiles             []string
	InitializationOptions any
}

// ConfigRegistry maps language identifiers and file extensions to
// LanguageConfig. Grounded on code_buddy/lsp/languages.go's ConfigRegistry,
// unchanged in structure.
type ConfigRegistry struct {
	mu         sync.RWMutex
	byLanguage map[string]LanguageConfig
	byExt      map[string]string
}

// NewConfigRegistry returns a registry pre-populated with the same default
// server set the teacher ships (gopls, pyright, typescript-language-server,
// rust-analyzer, jdtls, clangd).
func NewConfigRegistry() *ConfigRegistry {
	r := &ConfigRegistry{
		byLanguage: make(map[string]LanguageConfig),
		byExt:      make(map[string]string),
	}
	r.registerDefaults()
	return r
}

func (r *ConfigRegistry) registerDefaults() {
	r.Register(LanguageConfig{Language: "go", Command: "gopls", Args: []string{"serve"},
		Extensions: []string{".go"}, RootFiles: []string{"go.mod", "go.sum"}})
	r.Register(LanguageConfig{Language: "python", Command: "pyright-langserver", Args: []string{"--stdio"},
		Extensions: []string{".py", ".pyi"}, RootFiles: []string{"pyproject.toml", "requirements.txt", "setup.py"}})
	r.Register(LanguageConfig{Language: "typescript", Command: "typescript-language-server", Args: []string{"--stdio"},
		Extensions: []string{".ts", ".tsx"}, RootFiles: []string{"tsconfig.json", "package.json"}})
	r.Register(LanguageConfig{Language: "javascript", Command: "typescript-language-server", Args: []string{"--stdio"},
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}, RootFiles: []string{"package.json", "jsconfig.json"}})
	r.Register(LanguageConfig{Language: "rust", Command: "rust-analyzer",
		Extensions: []string{".rs"}, RootFiles: []string{"Cargo.toml"}})
	r.Register(LanguageConfig{Language: "java", Command: "jdtls",
		Extensions: []string{".java"}, RootFiles: []string{"pom.xml", "build.gradle", "build.gradle.kts"}})
	r.Register(LanguageConfig{Language: "c", Command: "clangd",
		Extensions: []string{".c", ".h"}, RootFiles: []string{"compile_commands.json", "CMakeLists.txt", "Makefile"}})
	r.Register(LanguageConfig{Language: "cpp", Command: "clangd",
		Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"}, RootFiles: []string{"compile_commands.json", "CMakeLists.txt", "Makefile"}})
}

// Register adds or replaces a language configuration.
func (r *ConfigRegistry) Register(config LanguageConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLanguage[config.Language] = config
	for _, ext := range config.Extensions {
		r.byExt[ext] = config.Language
	}
}

// Get returns the configuration for a language identifier.
func (r *ConfigRegistry) Get(language string) (LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byLanguage[language]
	return c, ok
}

// GetByExtension returns the configuration for a file extension.
func (r *ConfigRegistry) GetByExtension(ext string) (LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byExt[ext]
	if !ok {
		return LanguageConfig{}, false
	}
	c, ok := r.byLanguage[lang]
	return c, ok
}

// LanguageForPath resolves a file path to a registered language
// identifier, or ("", false) if its extension has no LanguageConfig.
func (r *ConfigRegistry) LanguageForPath(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byExt[filepath.Ext(path)]
	return lang, ok
}

// Languages returns all registered language identifiers.
func (r *ConfigRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	return out
}
