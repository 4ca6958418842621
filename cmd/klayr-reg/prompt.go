package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Klingon-tech/klayr-reg/config"
	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

// prompter asks the operator for settings no source provided.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// secret reads a line without echo.
	secret func(prompt string) (string, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	p.secret = p.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.secret = func(prompt string) (string, error) {
			fmt.Fprint(p.out, prompt)
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out) // newline after hidden input
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	return p
}

func (p *prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input for %q", strings.TrimSpace(prompt))
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) confirm(prompt string, def bool) (bool, error) {
	suffix := " [Y/n] "
	if !def {
		suffix = " [y/N] "
	}
	answer, err := p.readLine(prompt + suffix)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("answer %q is not yes or no", answer)
	}
}

// fill prompts for every required setting that is still empty.
func (p *prompter) fill(s *config.Settings) error {
	if s.MainIPC == "" && s.MainWS == "" {
		v, err := p.readLine("Enter mainchain IPC path or WS URL: ")
		if err != nil {
			return err
		}
		s.MainIPC, s.MainWS = config.SplitEndpoint(v)
	}
	if s.SideIPC == "" && s.SideWS == "" {
		v, err := p.readLine("Enter sidechain IPC path or WS URL: ")
		if err != nil {
			return err
		}
		s.SideIPC, s.SideWS = config.SplitEndpoint(v)
	}

	if s.SideName == "" {
		v, err := p.readLine("Enter sidechain name: ")
		if err != nil {
			return err
		}
		s.SideName = v
	}
	if s.Keys == "" {
		v, err := p.readLine("Enter sidechain validator keys path: ")
		if err != nil {
			return err
		}
		s.Keys = v
	}

	if s.PromptPath && s.PhrasePath == "" && (s.MainPhrasePath == "" || s.SidePhrasePath == "") {
		if err := p.fillPhrasePath(s); err != nil {
			return err
		}
	}
	if err := p.fillRelayerPhrases(s); err != nil {
		return err
	}
	if s.AuthorizeCC {
		return p.fillCCPasswords(s)
	}
	return nil
}

func (p *prompter) fillPhrasePath(s *config.Settings) error {
	fmt.Fprintf(p.out, "Choose phrase path option:\n"+
		"  1) Use default path for both chains (%q)\n"+
		"  2) Specify path for both chains\n"+
		"  3) Specify path for each chain\n", crypto.DefaultDerivationPath)
	choice, err := p.readLine("Choice [1]: ")
	if err != nil {
		return err
	}
	switch choice {
	case "", "1":
		s.SetPhrasePath(crypto.DefaultDerivationPath)
	case "2":
		v, err := p.readLine("Enter phrase path for both chains: ")
		if err != nil {
			return err
		}
		s.SetPhrasePath(v)
	case "3":
		if s.MainPhrasePath == "" {
			if s.MainPhrasePath, err = p.readLine("Enter phrase path for mainchain: "); err != nil {
				return err
			}
		}
		if s.SidePhrasePath == "" {
			if s.SidePhrasePath, err = p.readLine("Enter phrase path for sidechain: "); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown phrase path option %q", choice)
	}
	return nil
}

func (p *prompter) fillRelayerPhrases(s *config.Settings) error {
	if s.MainRelayerPhrase != "" && s.SideRelayerPhrase != "" {
		return nil
	}
	same, err := p.confirm("Use the same relayer passphrase for both chains?", true)
	if err != nil {
		return err
	}
	if same {
		v, err := p.secret("Enter relayer passphrase for both chains: ")
		if err != nil {
			return err
		}
		s.SetRelayerPhrase(v)
		return nil
	}
	if s.MainRelayerPhrase == "" {
		if s.MainRelayerPhrase, err = p.secret("Enter relayer passphrase for mainchain: "); err != nil {
			return err
		}
	}
	if s.SideRelayerPhrase == "" {
		if s.SideRelayerPhrase, err = p.secret("Enter relayer passphrase for sidechain: "); err != nil {
			return err
		}
	}
	return nil
}

func (p *prompter) fillCCPasswords(s *config.Settings) error {
	if s.MainCCPass != "" && s.SideCCPass != "" {
		return nil
	}
	same, err := p.confirm("Use the same CC password for both chains?", true)
	if err != nil {
		return err
	}
	if same {
		v, err := p.secret("Enter CC password for both chains: ")
		if err != nil {
			return err
		}
		s.SetCCPass(v)
		return nil
	}
	if s.MainCCPass == "" {
		if s.MainCCPass, err = p.secret("Enter CC password for mainchain: "); err != nil {
			return err
		}
	}
	if s.SideCCPass == "" {
		if s.SideCCPass, err = p.secret("Enter CC password for sidechain: "); err != nil {
			return err
		}
	}
	return nil
}
