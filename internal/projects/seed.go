package projects

// DefaultFiles seeds a new project with a working starter so the first
// preview renders without any editing.
func DefaultFiles() map[string]string {
	return map[string]string{
		"App.jsx": `import React from 'react';

function App() {
  return (
    <div style={{ padding: '20px', fontFamily: 'Arial, sans-serif' }}>
      <h1>Welcome to CipherStudio!</h1>
      <p>Start editing your React components to see them here.</p>
    </div>
  );
}

export default App;`,
		"index.js": `import React from 'react';
import ReactDOM from 'react-dom/client';
import App from './App';

const root = ReactDOM.createRoot(document.getElementById('root'));
root.render(<App />);`,
		"styles.css": `body {
  margin: 0;
  padding: 0;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto', sans-serif;
}`,
	}
}
