// SPDX-License-Identifier: MPL-2.0

package supervisor

// Environment contract between the master and its workers. The listening
// socket is always passed as the first extra file, so its descriptor number
// in the child is fixed.
const (
	// EnvListenFD names the inherited listening socket's descriptor.
	EnvListenFD = "GANTRY_FD"
	// EnvHeartbeat names the worker's heartbeat file.
	EnvHeartbeat = "GANTRY_HEARTBEAT"
	// EnvHeartbeatInterval is the touch interval in seconds.
	EnvHeartbeatInterval = "GANTRY_HEARTBEAT_INTERVAL"
	// EnvEntry is the application entry point in module:attr form.
	EnvEntry = "GANTRY_ENTRY"
	// EnvWorkerID is the worker slot number.
	EnvWorkerID = "GANTRY_WORKER_ID"

	// listenFDNumber is where the socket lands in the child: after stdin,
	// stdout and stderr, the first extra file is descriptor 3.
	listenFDNumber = 3

	// BootFailureExitCode is how a worker reports an unimportable entry
	// point. The master treats it as fatal for the whole supervisor when
	// the worker dies within the startup window.
	BootFailureExitCode = 3
)

// workerShim is the Python worker program. It resolves the entry point
// after the process working directory has been set (exiting with
// BootFailureExitCode when the import fails), wraps the inherited socket in
// a wsgiref server, and touches its heartbeat file every loop iteration so
// a request that stalls past the timeout leaves the heartbeat stale.
const workerShim = `
import importlib
import os
import select
import socket
import sys

fd = int(os.environ["GANTRY_FD"])
hb_path = os.environ["GANTRY_HEARTBEAT"]
interval = float(os.environ["GANTRY_HEARTBEAT_INTERVAL"])
entry = os.environ["GANTRY_ENTRY"]

sys.path.insert(0, os.getcwd())

module_name, _, attr = entry.partition(":")
try:
    application = getattr(importlib.import_module(module_name), attr)
except Exception:
    import traceback
    traceback.print_exc()
    sys.exit(3)

from wsgiref.simple_server import WSGIServer, WSGIRequestHandler

sock = socket.socket(fileno=fd)
host, port = sock.getsockname()[:2]

server = WSGIServer((host, port), WSGIRequestHandler, bind_and_activate=False)
server.socket.close()
server.socket = sock
server.server_name = socket.getfqdn(host)
server.server_port = port
server.setup_environ()
server.set_app(application)


def touch():
    os.utime(hb_path, None)


touch()
while True:
    ready, _, _ = select.select([server], [], [], interval)
    touch()
    if ready:
        server.handle_request()
        touch()
`
