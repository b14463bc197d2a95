// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("🥾 m-hike - Hiking Journal Migration Library")
	fmt.Println("============================================")
	fmt.Println()
	fmt.Println("m-hike moves a guest's locally stored hiking journal (hikes, observations,")
	fmt.Println("and images) into an authenticated cloud account, with progress reporting,")
	fmt.Println("partial-failure tolerance, and verified local cleanup.")
	fmt.Println()

	fmt.Println("📚 Available Examples:")
	fmt.Println()
	fmt.Println("1. 🌐 Journal Server (examples/journal_server/)")
	fmt.Println("   The remote store: Postgres-backed journal documents over HTTP")
	fmt.Println("   Features: JWT auth, guest signup, idempotent document upserts")
	fmt.Println("   Run: cd examples/journal_server && go run .")
	fmt.Println()

	fmt.Println("2. 📱 Guest Signup Demo (examples/guest_signup/)")
	fmt.Println("   End-to-end guest-to-account migration against a running server")
	fmt.Println("   Features: SQLite seeding, live progress, verification and cleanup")
	fmt.Println("   Run: cd examples/guest_signup && go run .")
	fmt.Println()
}
