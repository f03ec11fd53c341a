// Command ratfsctl formats, inspects, and extracts files from ratfs disk
// images from the command line.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/hour01/EXT2like-Naive-File-System/blockdev"
	"github.com/hour01/EXT2like-Naive-File-System/ratfs"
)

const defaultIOSize = 512

func main() {
	app := cli.App{
		Name:  "ratfsctl",
		Usage: "Format, inspect, and extract files from ratfs disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a ratfs image file, formatting it unless it already holds a ratfs volume",
				ArgsUsage: "IMAGE_FILE SIZE_BYTES",
				Action:    formatImage,
			},
			{
				Name:      "ls",
				Usage:     "List the entries of a directory",
				ArgsUsage: "IMAGE_FILE PATH",
				Action:    listDirectory,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				ArgsUsage: "IMAGE_FILE PATH",
				Action:    catFile,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func mountArg(context *cli.Context) (*ratfs.FileSystem, error) {
	imagePath := context.Args().Get(0)
	if imagePath == "" {
		return nil, fmt.Errorf("missing IMAGE_FILE argument")
	}

	info, statErr := os.Stat(imagePath)
	var size int64
	if statErr == nil {
		size = info.Size()
	} else {
		sizeArg := context.Args().Get(1)
		parsed, err := strconv.ParseInt(sizeArg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("image %q doesn't exist yet; pass SIZE_BYTES to create it", imagePath)
		}
		size = parsed
	}

	device := blockdev.NewFileBlockDevice(size, defaultIOSize)
	if err := device.Open(imagePath); err != nil {
		return nil, err
	}

	return ratfs.Mount(device, ratfs.MountOptions{Device: imagePath})
}

func formatImage(context *cli.Context) error {
	fs, err := mountArg(context)
	if err != nil {
		return err
	}
	return fs.Unmount()
}

func listDirectory(context *cli.Context) error {
	fs, err := mountArg(context)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	path := context.Args().Get(1)
	if path == "" {
		path = "/"
	}

	dentry, found, _ := fs.Lookup(path)
	if !found {
		return fmt.Errorf("%s: no such file or directory", path)
	}
	if !dentry.Inode.IsDir() {
		return fmt.Errorf("%s: not a directory", path)
	}

	for child := dentry.Inode.Children; child != nil; child = child.NextSibling {
		fmt.Printf("%-8s %s\n", child.Ftype, child.Name)
	}
	return nil
}

func catFile(context *cli.Context) error {
	fs, err := mountArg(context)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	path := context.Args().Get(1)
	dentry, found, _ := fs.Lookup(path)
	if !found {
		return fmt.Errorf("%s: no such file or directory", path)
	}
	if !dentry.Inode.IsFile() {
		return fmt.Errorf("%s: not a regular file", path)
	}

	buf := make([]byte, dentry.Inode.Size)
	n, err := fs.InodeRead(dentry.Inode, buf, dentry.Inode.Size, 0)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}
