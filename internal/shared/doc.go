// Package shared holds helpers used by more than one package that belong to
// no single domain layer. Today that is only the testutil subpackage: log
// capture for asserting on slog output and fixture writers for wide-format
// sales workbooks.
package shared
