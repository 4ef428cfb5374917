/*
Package lazyreg wires a process's shared resources to a lazy singleton
registry.

A Container is created once at startup. Each resource (the database
connection, the application log journal, the document cache) is constructed
the first time any goroutine asks for it, and every later caller receives the
same instance:

	c, err := lazyreg.NewFromFile("lazyreg.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	db, err := c.Database(ctx)
	if err != nil {
	    log.Fatal(err)
	}

Concurrent first calls are safe: exactly one caller opens the connection and
the others wait for it. See package registry for the exclusion rules and the
failure semantics.

Additional resources share the same registry:

	queue, err := registry.Resolve(ctx, c.Registry(), "queue", newQueue)
*/
package lazyreg
