/*
Package ports defines the driven ports (interfaces) of the talks core.

These interfaces decouple talks from the medium holding their bytes, allowing
the same Talk implementation to run over files, memory, Redis or SQLite.

# Key Interfaces

  - TalkStore: loads, atomically replaces, deletes and lists the raw bytes of talks.
  - DistributedLocker: provides distributed locking for concurrent writers across replicas.
*/
package ports
