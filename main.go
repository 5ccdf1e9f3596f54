// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package main

import "github.com/chapterly/catalog-service/cmd"

func main() {
	cmd.Execute()
}
