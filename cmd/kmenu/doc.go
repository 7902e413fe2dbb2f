// Copyright 2026 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file was auto-generated via go generate.
// DO NOT UPDATE MANUALLY

/*
Command kmenu boots a kernel and runs one of its tests: stress tests of the
synchronization primitives, a bitmap test, and user-level process tests built
on fork, waitpid and exit.

Usage:
   kmenu [flags] <command>

The kmenu commands are:
   sy1         Semaphore test
   sy2         Lock test
   sy3         Condition variable test
   bt          Bitmap test
   simplefork  Fork a child and wait for it
   forkbomb    Fork until out of resources
   memstats    Show memory statistics
   ps          Show the process table
   help        Display help for commands or topics

The kmenu flags are:
 -lock=wchan
   Lock implementation, one of wchan or sem.
 -lock-order=false
   If true, report lock order cycles.
 -max-threads=256
   Maximum number of live kernel threads, 0 for no limit.
 -pages=1024
   Number of physical pages.
 -pid-max=32767
   Largest process id.

The global flags are:
 -metadata=<just specify -metadata to activate>
   Displays metadata for the program and exits.
 -time=false
   Dump timing information to stderr before exiting the program.

Kmenu sy1 - Semaphore test

Runs threads that use a semaphore with an initial count of one to protect a
shared counter, and checks that the count never admits two of them at once.

Usage:
   kmenu sy1 [flags]

The kmenu sy1 flags are:
 -iters=100
   Iterations per thread.
 -threads=16
   Number of threads.

Kmenu sy2 - Lock test

Runs threads that update a shared counter under a lock, and checks mutual
exclusion and lock ownership.

Usage:
   kmenu sy2 [flags]

The kmenu sy2 flags are:
 -iters=100
   Iterations per thread.
 -threads=16
   Number of threads.

Kmenu sy3 - Condition variable test

Runs threads that take turns in a fixed order, each waiting on a condition
variable for its turn and broadcasting when done.

Usage:
   kmenu sy3 [flags]

The kmenu sy3 flags are:
 -iters=100
   Iterations per thread.
 -threads=16
   Number of threads.

Kmenu bt - Bitmap test

Allocates every bit of a bitmap, frees and reallocates some of them, and
allocates contiguous runs.

Usage:
   kmenu bt [flags]

The kmenu bt flags are:
 -bits=100
   Size of the bitmap.

Kmenu simplefork - Fork a child and wait for it

Runs a program that forks once. The child exits with the code given by -code;
the parent waits for it and prints its exit status.

Usage:
   kmenu simplefork [flags]

The kmenu simplefork flags are:
 -code=7
   Exit code of the child.

Kmenu forkbomb - Fork until out of resources

Runs a program that forks children that stay alive until fork fails or -n
children exist, then reaps them all and checks that no process id or page was
leaked.

Usage:
   kmenu forkbomb [flags]

The kmenu forkbomb flags are:
 -n=0
   Number of children to fork, 0 to fork until fork fails.

Kmenu memstats - Show memory statistics

Shows coremap and host memory statistics before and after running a program
that forks a child, and reports any pages the program leaked.

Usage:
   kmenu memstats

Kmenu ps - Show the process table

Runs a program that forks -n children that exit at once, dumps the process
table while they are zombies, and then reaps them.

Usage:
   kmenu ps [flags]

The kmenu ps flags are:
 -n=3
   Number of children to fork.

Kmenu help - Display help for commands or topics

Help with no args displays the usage of the parent command.

Help with args displays the usage of the specified sub-command or help topic.

"help ..." recursively displays help for all commands and topics.

Usage:
   kmenu help [flags] [command/topic ...]

[command/topic ...] optional arguments are commands or topics to get help for.

The kmenu help flags are:
 -style=compact
   The formatting style for help output:
      compact   - Good for compact cmdline output.
      full      - Good for cmdline output, shows all global flags.
      godoc     - Good for godoc processing.
      shortonly - Only output short description.
   Override the default by setting the CMDLINE_STYLE environment variable.
 -width=<terminal width>
   Format output to this target width in runes, or unlimited if width < 0.
   Defaults to the terminal width if available.  Override the default by
   setting the CMDLINE_WIDTH environment variable.
*/
package main
