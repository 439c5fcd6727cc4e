// Package startup registers the tray applet to launch at user login.
package startup

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

type Manager interface {
	Enable() error
	Disable() error
	IsEnabled() bool
}

// NewManager returns the login-item manager for the current platform.
// The registered command launches the app in tray mode.
func NewManager(appName, displayName string) Manager {
	switch runtime.GOOS {
	case "windows":
		return &windowsManager{appName: appName}
	case "darwin":
		return &macosManager{appName: appName}
	default:
		return &linuxManager{appName: appName, displayName: displayName}
	}
}

type windowsManager struct {
	appName string
}

func (m *windowsManager) Enable() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command("reg", "add", `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`,
		"/v", m.appName, "/t", "REG_SZ", "/d", `"`+exePath+`" tray`, "/f")
	return cmd.Run()
}

func (m *windowsManager) Disable() error {
	cmd := exec.Command("reg", "delete", `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`,
		"/v", m.appName, "/f")
	return cmd.Run()
}

func (m *windowsManager) IsEnabled() bool {
	cmd := exec.Command("reg", "query", `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`,
		"/v", m.appName)
	return cmd.Run() == nil
}

type linuxManager struct {
	appName     string
	displayName string
}

func (m *linuxManager) desktopFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config/autostart", m.appName+".desktop"), nil
}

func (m *linuxManager) Enable() error {
	desktopFile, err := m.desktopFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(desktopFile), 0o755); err != nil {
		return err
	}
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	content := `[Desktop Entry]
Type=Application
Version=1.0
Name=` + m.displayName + `
Comment=` + m.displayName + ` tray applet
Exec=` + exePath + ` tray
Terminal=false
Categories=Network;Utility;
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true`

	return os.WriteFile(desktopFile, []byte(content), 0o644)
}

func (m *linuxManager) Disable() error {
	desktopFile, err := m.desktopFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(desktopFile); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(desktopFile)
}

func (m *linuxManager) IsEnabled() bool {
	desktopFile, err := m.desktopFile()
	if err != nil {
		return false
	}
	_, err = os.Stat(desktopFile)
	return err == nil
}

type macosManager struct {
	appName string
}

func (m *macosManager) plistFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "Library/LaunchAgents", "com."+m.appName+".plist"), nil
}

func (m *macosManager) Enable() error {
	plistFile, err := m.plistFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(plistFile), 0o755); err != nil {
		return err
	}
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	content := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.` + m.appName + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>` + exePath + `</string>
        <string>tray</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>`

	if err := os.WriteFile(plistFile, []byte(content), 0o644); err != nil {
		return err
	}
	return exec.Command("launchctl", "load", plistFile).Run()
}

func (m *macosManager) Disable() error {
	plistFile, err := m.plistFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(plistFile); err != nil {
		return nil
	}
	if err := exec.Command("launchctl", "unload", plistFile).Run(); err != nil {
		return err
	}
	return os.Remove(plistFile)
}

func (m *macosManager) IsEnabled() bool {
	plistFile, err := m.plistFile()
	if err != nil {
		return false
	}
	_, err = os.Stat(plistFile)
	return err == nil
}
