// Package model provides the domain types shared by the race packages.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - Horses are immutable once a roster is built
//   - Runs reference horses by value; identity is the horse ID
//   - All JSON tags use snake_case
package model
