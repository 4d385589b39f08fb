// Package profile implements the profile/statement matching engine used to
// decide whether a package conforms to a structural profile.
//
// A Statement matches a candidate string against configured values with a
// comparison Operator. Statements combine into a Chain with AND/OR/NOT, and a
// CollectionEvaluator applies any Evaluator to a set of candidates under a
// matching Strategy. A Profile is a named list of Rules, each selecting
// candidate strings from a package and evaluating them with a strategy.
package profile
