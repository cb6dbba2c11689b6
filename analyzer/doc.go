// Package analyzer derives lightweight NLP signals from message text:
// a sentiment score, topic categories, recurring idiomatic expressions and
// basic counts. The implementation is a fixed keyword-table scan over
// Portuguese vocabulary — deterministic, allocation-light and free of I/O —
// exposed behind the TextAnalyzer interface so a model-based implementation
// can replace it without touching storage or personality code.
package analyzer
