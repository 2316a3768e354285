// Package narrative turns a finished forecast into a business report by
// running three language-model tasks in sequence: a data engineer describes
// the structured input, a forecast analyst interprets the predictions and
// their intervals, and a fuel markets strategist writes the recommendations.
//
// Tasks are built from a validated Request, never from free-form strings at
// the call site. Each task sees the outputs of the tasks before it.
//
// GeminiGenerator backs the Generator interface with the Gemini API; tests
// use a fake generator.
package narrative
