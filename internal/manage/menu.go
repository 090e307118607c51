package manage

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/eiannone/keyboard"
	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
)

var emailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.-]+$`)

// Menu is the interactive administration console for groups, members,
// and album links
type Menu struct {
	store      *store.Store
	in         *bufio.Reader
	reportPath string
}

// Config holds menu configuration
type Config struct {
	Store      *store.Store
	ReportPath string
}

// New creates a new Menu reading from stdin
func New(cfg *Config) *Menu {
	return &Menu{
		store:      cfg.Store,
		in:         bufio.NewReader(os.Stdin),
		reportPath: cfg.ReportPath,
	}
}

// Run loops on the main menu until the user exits
func (m *Menu) Run() error {
	for {
		m.printMenu()

		ch, _, err := keyboard.GetSingleKey()
		if err != nil {
			return fmt.Errorf("failed to read menu selection: %w", err)
		}
		fmt.Println()

		var actionErr error
		switch unicode.ToUpper(ch) {
		case '1':
			actionErr = m.addGroup()
		case '2':
			actionErr = m.removeGroup()
		case '3':
			actionErr = m.addMember()
		case '4':
			actionErr = m.removeMember()
		case '5':
			actionErr = m.addAlbum()
		case '6':
			actionErr = m.updateAlbum()
		case '7':
			actionErr = m.duplicateAlbum()
		case 'R':
			actionErr = m.createReport()
		case 'X':
			fmt.Println("\nExiting.")
			return nil
		}

		if actionErr != nil {
			util.ErrorLog("%v", actionErr)
		}
	}
}

func (m *Menu) printMenu() {
	fmt.Println(strings.Repeat("*", 21))
	fmt.Println("***** Main Menu *****")
	fmt.Println(strings.Repeat("*", 21))
	fmt.Println("Select an option from menu:")
	fmt.Println("\n Key  Menu Option:                 Description:")
	fmt.Println(" ---  ------------                 ------------")
	fmt.Println("  1 - Add Group                   Adds a new group")
	fmt.Println("  2 - Remove Group                Removes a group and its members")
	fmt.Println("  3 - Add Group Member            Adds a new member to a group")
	fmt.Println("  4 - Remove Group Member         Removes a member from a group")
	fmt.Println("  5 - Add Album                   Adds a new album")
	fmt.Println("  6 - Update Album/Group Link     Relinks an album to a group")
	fmt.Println("  7 - Duplicate Album             Duplicates an album under a new group")
	fmt.Println("  R - Create Report               Writes the HTML system report")
	fmt.Print("\nPress a key for item selection or press X to exit: ")
}

// readLine prompts for one line of input, trimmed. Returns ok=false when the
// user cancels with X.
func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Print(prompt)
	line, err := m.in.ReadString('\n')
	if err != nil {
		return "", false
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "x") {
		return "", false
	}
	return line, true
}

// readID prompts for a numeric identifier
func (m *Menu) readID(prompt string) (int64, bool) {
	for {
		line, ok := m.readLine(prompt)
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Println("Please enter a numeric ID.")
			continue
		}
		return id, true
	}
}

func (m *Menu) printGroups() error {
	groups, err := m.store.GetGroups()
	if err != nil {
		return err
	}

	fmt.Println("\nGroup ID     Name")
	fmt.Println("--------     -----")
	for _, g := range groups {
		fmt.Printf("%-12d %s\n", g.ID, g.Name)
	}
	return nil
}

func (m *Menu) addGroup() error {
	for {
		name, ok := m.readLine("Enter a name for the new group (or type 'X' to exit): ")
		if !ok {
			return nil
		}
		if name == "" {
			continue
		}

		exists, err := m.store.GroupExists(name)
		if err != nil {
			return err
		}
		if exists {
			fmt.Printf("The group name %q already exists.\n\n", name)
			continue
		}

		if err := m.store.CreateGroup(name); err != nil {
			return err
		}
		fmt.Printf("Group %q added successfully.\n\n", name)
		return nil
	}
}

func (m *Menu) removeGroup() error {
	for {
		if err := m.printGroups(); err != nil {
			return err
		}

		id, ok := m.readID("\nEnter the Group ID to remove (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Group removal canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(id)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", id)
			continue
		}
		if group.ID == store.DefaultGroupID {
			fmt.Println("The default group cannot be removed.")
			continue
		}

		if err := m.store.DeleteGroup(id); err != nil {
			return err
		}
		fmt.Printf("Group %d and its members removed successfully.\n\n", id)
		return nil
	}
}

func (m *Menu) addMember() error {
	for {
		if err := m.printGroups(); err != nil {
			return err
		}

		groupID, ok := m.readID("\nEnter the Group ID to add a member to (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Add member canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(groupID)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", groupID)
			continue
		}

		name, ok := m.readLine("Enter the member's name: ")
		if !ok || name == "" {
			fmt.Println("Add member canceled.")
			return nil
		}

		var email string
		for {
			email, ok = m.readLine("Enter the member's email: ")
			if !ok {
				fmt.Println("Add member canceled.")
				return nil
			}
			if emailPattern.MatchString(email) {
				break
			}
			fmt.Println("Invalid input. Please enter a valid email address.")
		}

		if err := m.store.AddMember(name, email, groupID); err != nil {
			return err
		}
		fmt.Printf("Member %s added successfully to group %d.\n\n", name, groupID)
		return nil
	}
}

func (m *Menu) removeMember() error {
	for {
		if err := m.printGroups(); err != nil {
			return err
		}

		groupID, ok := m.readID("\nEnter the Group ID to remove a member from (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Member removal canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(groupID)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", groupID)
			continue
		}

		members, err := m.store.GetMembers(groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			fmt.Println("No members found in group.")
			continue
		}

		fmt.Println("\nMember ID    Name")
		fmt.Println("---------    -----")
		for _, mem := range members {
			fmt.Printf("%-12d %s\n", mem.ID, mem.Name)
		}

		memberID, ok := m.readID("\nEnter the Member ID to remove (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Member removal canceled.")
			return nil
		}

		if err := m.store.RemoveMember(memberID, groupID); err != nil {
			fmt.Printf("%v\n\n", err)
			continue
		}
		fmt.Printf("Member %d removed successfully from group %d.\n\n", memberID, groupID)
		return nil
	}
}

func (m *Menu) addAlbum() error {
	for {
		name, ok := m.readLine("\nEnter the name of the new album to add (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Add album canceled.")
			return nil
		}
		if name == "" {
			continue
		}

		exists, err := m.store.AlbumExists(name)
		if err != nil {
			return err
		}
		if exists {
			fmt.Printf("Album %q already exists.\n\n", name)
			continue
		}

		if err := m.printGroups(); err != nil {
			return err
		}

		groupID, ok := m.readID("\nEnter the Group ID for the new album (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Add album canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(groupID)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", groupID)
			continue
		}

		if err := m.store.InsertAlbum(name, groupID); err != nil {
			return err
		}
		fmt.Printf("Album %q added successfully to group %d.\n\n", name, groupID)
		return nil
	}
}

func (m *Menu) printAlbums() error {
	albums, err := m.store.GetAlbumsWithGroups()
	if err != nil {
		return err
	}

	fmt.Println("\nAlbum ID     Album Name                               Group Name")
	fmt.Println("--------     ----------                               ----------")
	for _, a := range albums {
		fmt.Printf("%-12d %-40s %s\n", a.ID, a.Name, a.GroupName)
	}
	return nil
}

func (m *Menu) updateAlbum() error {
	for {
		if err := m.printAlbums(); err != nil {
			return err
		}

		albumID, ok := m.readID("\nEnter the Album ID to update (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Update album canceled.")
			return nil
		}

		alb, err := m.store.GetAlbumByID(albumID)
		if err != nil {
			return err
		}
		if alb == nil {
			fmt.Printf("Album ID %d does not exist.\n\n", albumID)
			continue
		}

		if err := m.printGroups(); err != nil {
			return err
		}

		groupID, ok := m.readID("\nEnter the new Group ID for the album (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Update album canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(groupID)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", groupID)
			continue
		}

		if err := m.store.UpdateAlbumGroup(albumID, groupID); err != nil {
			return err
		}
		fmt.Printf("Album %d successfully relinked to group %d.\n\n", albumID, groupID)
		return nil
	}
}

func (m *Menu) duplicateAlbum() error {
	for {
		if err := m.printAlbums(); err != nil {
			return err
		}

		albumID, ok := m.readID("\nEnter the Album ID to duplicate (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Duplicate album canceled.")
			return nil
		}

		alb, err := m.store.GetAlbumByID(albumID)
		if err != nil {
			return err
		}
		if alb == nil {
			fmt.Printf("Album ID %d does not exist.\n\n", albumID)
			continue
		}

		if err := m.printGroups(); err != nil {
			return err
		}

		groupID, ok := m.readID("\nEnter the new Group ID for the album (or type 'X' to cancel): ")
		if !ok {
			fmt.Println("Duplicate album canceled.")
			return nil
		}

		group, err := m.store.GetGroupByID(groupID)
		if err != nil {
			return err
		}
		if group == nil {
			fmt.Printf("Group ID %d does not exist.\n\n", groupID)
			continue
		}

		if err := m.store.DuplicateAlbum(albumID, groupID); err != nil {
			return err
		}
		fmt.Printf("Album %q duplicated under group %d.\n\n", alb.Name, groupID)
		return nil
	}
}

func (m *Menu) createReport() error {
	if err := report.WriteHTMLReport(m.store, m.reportPath); err != nil {
		return err
	}
	fmt.Printf("System report saved to %s\n\n", m.reportPath)
	return nil
}
