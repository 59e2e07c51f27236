// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations suitable for
// unit testing. Each mock provides:
//
//   - Default behavior matching the PostgreSQL store semantics
//   - Callback functions (xxxFn) for injecting failures per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestMyService(t *testing.T) {
//		store := mocks.NewReviewStore()
//		store.PutReview(domain.Review{ID: "r1", PlaceID: "p1", Body: "..."})
//
//		svc := NewService(store)
//		// ... test service behavior
//	}
//
// # Available Mocks
//
//   - ReviewStore: implements ports.ReviewStore
package mocks
