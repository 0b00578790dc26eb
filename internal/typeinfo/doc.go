// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go struct types and their processing
by the expression compiler. As much as possible, struct reflection code is
limited to this package. It resolves the members that expressions access and
the "db" tags used when scanning query results into structs.
*/
package typeinfo
