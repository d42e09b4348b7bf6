/*
Package ports defines the driven ports (interfaces) of the Abacus services.

These interfaces decouple the calculator and history services from external
implementations, allowing them to work with various storage backends and
limiters.

# Key Interfaces

  - StateStore: persists calculator session State (memory, Redis, files).
  - DistributedLocker: distributed locking for concurrent session access.
  - UserRepository, OperationRepository: accounts and calculation history (SQLite).
  - RateLimiter: request quotas per client key (memory, Redis).
*/
package ports
