// Package server serves the built-in browser test page for exercising chat
// rooms by hand.
package server

import (
	"fmt"
	"log"
	"net/http"
)

// handleTestPage serves an HTML page for poking at chat rooms from a
// browser. It lets you pick a room and username, connect, send messages,
// and watch what the room relays back.
func (s *Server) handleTestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Roomcast Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 300px;
            padding: 5px;
            margin-right: 10px;
        }
        input[type="text"].short { width: 120px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Roomcast Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="roomInput" class="short" placeholder="Room id" value="1">
        <input type="text" id="userInput" class="short" placeholder="Username" value="tester">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const roomInput = document.getElementById('roomInput');
        const userInput = document.getElementById('userInput');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(message, type = 'info') {
            const messageElement = document.createElement('div');
            messageElement.style.margin = '5px 0';
            messageElement.style.padding = '3px';

            if (type === 'received') {
                messageElement.style.color = 'green';
                messageElement.textContent = message;
            } else {
                messageElement.style.color = 'gray';
                messageElement.innerHTML = '<em>' + message + '</em>';
            }

            messagesDiv.appendChild(messageElement);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            if (connected) {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
                connectButton.textContent = 'Disconnect';
                roomInput.disabled = true;
                userInput.disabled = true;
            } else {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                messageInput.disabled = true;
                sendButton.disabled = true;
                connectButton.textContent = 'Connect';
                roomInput.disabled = false;
                userInput.disabled = false;
            }
        }

        function connect() {
            const room = roomInput.value.trim();
            const user = userInput.value.trim();
            if (!room || !user) {
                addMessage('Room id and username are required');
                return;
            }

            const scheme = location.protocol === 'https:' ? 'wss' : 'ws';
            const url = scheme + '://' + location.host +
                '/ws/room/' + encodeURIComponent(room) +
                '/user/' + encodeURIComponent(user);
            ws = new WebSocket(url);

            ws.onopen = function(event) {
                addMessage('Connected to room ' + room + ' as ' + user);
                updateStatus(true);
            };

            ws.onmessage = function(event) {
                try {
                    const msg = JSON.parse(event.data);
                    addMessage(msg.user + ': ' + msg.message, 'received');
                } catch (e) {
                    addMessage(event.data, 'received');
                }
            };

            ws.onclose = function(event) {
                addMessage('Connection closed');
                updateStatus(false);
                ws = null;
            };

            ws.onerror = function(error) {
                addMessage('Connection error: ' + error);
                updateStatus(false);
            };
        }

        function disconnect() {
            if (ws) {
                ws.close();
            }
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                disconnect();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({user: userInput.value.trim(), message: message}));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing test page response: %v", err)
	}
}
