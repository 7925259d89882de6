// Package testutils provides testing utilities for syncdash.
//
// This package contains helpers for:
//  1. Running a fake alist-sync dashboard API (FakeDashboard) built on chi,
//     with switches for slow, failing and rejected task runs
//  2. Capturing slog output in memory (TestSlogHandler)
//
// # Fake dashboard
//
//	fake := testutils.NewFakeDashboard(testutils.FakeTask{ID: 1, Name: "photos"})
//	srv := fake.Start(t)
//	client, _ := apiclient.New(srv.URL)
//
//	fake.FailRun(1, http.StatusInternalServerError)
//	release := fake.HoldRuns()
//	defer release()
package testutils
