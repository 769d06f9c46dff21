// Package repository provides a generic repository built on Bun. One
// BaseRepository serves one entity type with a fixed operation set: detached
// creation, save, lookups with a closed filter structure, partial update,
// removal and pagination.
package repository
